package pool

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/puddle/v2"
	"golang.org/x/sync/semaphore"

	"github.com/CoderCookE/redispool/internal/logging"
	"github.com/CoderCookE/redispool/internal/stats"
)

// Manager creates, checks and disposes of the objects held by a Pool.
type Manager[T any] interface {
	Create(ctx context.Context) (T, error)
	// Recycle is called before an object that has already been handed out
	// is handed out again. A non-nil error discards the object.
	Recycle(ctx context.Context, obj T) error
	Destroy(obj T)
}

type slot[T any] struct {
	value T
	used  bool
}

// Pool hands out objects built by a Manager. Objects are created lazily on
// Get, never by New.
type Pool[T any] struct {
	manager   Manager[T]
	config    Config
	resources *puddle.Pool[*slot[T]]
	slots     *semaphore.Weighted
	logger    *slog.Logger
	name      string
}

type Option func(*options)

type options struct {
	logger *slog.Logger
	name   string
}

// WithLogger reports recycle failures and timeouts.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName labels the pool in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New wraps manager in a pool sized by c. It does no I/O and cannot fail; a
// non-positive MaxSize is replaced with the default and one above
// math.MaxInt32 is capped.
func New[T any](manager Manager[T], c Config, opts ...Option) *Pool[T] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	if c.MaxSize < 1 {
		c.MaxSize = DefaultConfig().MaxSize
	}
	if c.MaxSize > math.MaxInt32 {
		c.MaxSize = math.MaxInt32
	}

	p := &Pool[T]{
		manager: manager,
		config:  c,
		slots:   semaphore.NewWeighted(int64(c.MaxSize)),
		logger:  o.logger,
		name:    o.name,
	}

	resources, err := puddle.NewPool(&puddle.Config[*slot[T]]{
		Constructor: p.construct,
		Destructor:  p.destruct,
		MaxSize:     int32(c.MaxSize),
	})
	if err != nil {
		// MaxSize is within [1, math.MaxInt32] here
		panic(err)
	}
	p.resources = resources

	return p
}

// Config returns the settings the pool was built with.
func (p *Pool[T]) Config() Config {
	return p.config
}

// Get waits for a free slot and returns an object for it. Timeouts.Wait only
// bounds the wait for the slot; creating the object is bounded by
// Timeouts.Create alone. The caller must call Release or Discard on the result
// exactly once.
func (p *Pool[T]) Get(ctx context.Context) (*Object[T], error) {
	start := time.Now()
	defer func() {
		stats.Durations.WithLabelValues("get_connection").Observe(time.Since(start).Seconds())
	}()

	waitCtx, cancel := withTimeout(ctx, p.config.Timeouts.Wait)
	defer cancel()

	if err := p.slots.Acquire(waitCtx, 1); err != nil {
		return nil, p.acquireError(ctx, waitCtx, err)
	}

	for {
		res, err := p.resources.Acquire(ctx)
		if err != nil {
			p.slots.Release(1)
			return nil, p.acquireError(ctx, ctx, err)
		}

		s := res.Value()
		if !s.used {
			s.used = true
			return &Object[T]{res: res, slots: p.slots}, nil
		}

		if err := p.recycle(ctx, s.value); err != nil {
			stats.RecycleFailures.WithLabelValues(p.name).Inc()
			logging.Debug(p.logger, "discarding connection", logging.FieldPool, p.name, "error", err)
			res.Destroy()
			continue
		}

		return &Object[T]{res: res, slots: p.slots}, nil
	}
}

// Status reports the current slot usage.
func (p *Pool[T]) Status() Status {
	st := p.resources.Stat()
	return Status{
		MaxSize:   int(st.MaxResources()),
		Size:      int(st.TotalResources()),
		Available: int(st.IdleResources()),
		InUse:     int(st.AcquiredResources()),
	}
}

// Close destroys idle objects and waits for acquired ones to be returned.
func (p *Pool[T]) Close() {
	p.resources.Close()
}

func (p *Pool[T]) construct(ctx context.Context) (*slot[T], error) {
	start := time.Now()
	createCtx, cancel := withTimeout(ctx, p.config.Timeouts.Create)
	defer cancel()

	value, err := p.manager.Create(createCtx)
	stats.Durations.WithLabelValues("create_connection").Observe(time.Since(start).Seconds())
	if err != nil {
		if isOwnDeadline(ctx, createCtx) {
			logging.Warn(p.logger, "create timed out", logging.FieldPool, p.name)
			return nil, &TimeoutError{Kind: TimeoutCreate, Err: err}
		}
		return nil, &BackendError{Err: err}
	}

	return &slot[T]{value: value}, nil
}

func (p *Pool[T]) destruct(s *slot[T]) {
	p.manager.Destroy(s.value)
}

func (p *Pool[T]) recycle(ctx context.Context, value T) error {
	start := time.Now()
	recycleCtx, cancel := withTimeout(ctx, p.config.Timeouts.Recycle)
	defer cancel()

	err := p.manager.Recycle(recycleCtx, value)
	stats.Durations.WithLabelValues("recycle_connection").Observe(time.Since(start).Seconds())
	if err != nil && isOwnDeadline(ctx, recycleCtx) {
		return &TimeoutError{Kind: TimeoutRecycle, Err: err}
	}

	return err
}

func (p *Pool[T]) acquireError(ctx, waitCtx context.Context, err error) error {
	var timeoutErr *TimeoutError
	var backendErr *BackendError

	switch {
	case errors.Is(err, puddle.ErrClosedPool):
		return ErrClosed
	case errors.As(err, &timeoutErr), errors.As(err, &backendErr):
		return err
	case isOwnDeadline(ctx, waitCtx):
		logging.Warn(p.logger, "wait timed out", logging.FieldPool, p.name)
		return &TimeoutError{Kind: TimeoutWait, Err: err}
	default:
		return err
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// isOwnDeadline reports whether child expired while parent is still live.
func isOwnDeadline(parent, child context.Context) bool {
	return errors.Is(child.Err(), context.DeadlineExceeded) && parent.Err() == nil
}

// Object is a pooled value on loan to a caller.
type Object[T any] struct {
	res   *puddle.Resource[*slot[T]]
	slots *semaphore.Weighted
}

func (o *Object[T]) Value() T {
	return o.res.Value().value
}

// Release hands the object back for reuse.
func (o *Object[T]) Release() {
	o.res.Release()
	o.slots.Release(1)
}

// Discard destroys the object instead of returning it, freeing its slot.
func (o *Object[T]) Discard() {
	o.res.Destroy()
	o.slots.Release(1)
}

// Status is a snapshot of a pool's slots.
type Status struct {
	MaxSize   int
	Size      int
	Available int
	InUse     int
}
