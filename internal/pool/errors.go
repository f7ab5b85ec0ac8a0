package pool

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Get once the pool has been closed.
var ErrClosed = errors.New("pool closed")

// TimeoutKind names the phase of Get that ran out of time.
type TimeoutKind int

const (
	TimeoutWait TimeoutKind = iota + 1
	TimeoutCreate
	TimeoutRecycle
)

func (k TimeoutKind) String() string {
	switch k {
	case TimeoutWait:
		return "wait"
	case TimeoutCreate:
		return "create"
	case TimeoutRecycle:
		return "recycle"
	default:
		return "unknown"
	}
}

// TimeoutError reports that one of the configured timeouts elapsed.
type TimeoutError struct {
	Kind TimeoutKind
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pool: %s timeout: %v", e.Kind, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// BackendError wraps a failure returned by the Manager while creating an object.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("pool: backend: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
