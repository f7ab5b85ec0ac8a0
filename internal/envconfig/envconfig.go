// Package envconfig fills a config.Config from environment variables that
// share a prefix, e.g.
//
//	REDIS_URL=redis://cache.internal:6379/0
//	REDIS_POOL.MAX_SIZE=16
//	REDIS_POOL.TIMEOUTS.WAIT.SECS=2
//	REDIS_POOL.TIMEOUTS.WAIT.NANOS=0
//	REDIS_POOL.TIMEOUTS.CREATE=500ms
//
// Names are matched case-insensitively and "." separates nested fields.
package envconfig

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/CoderCookE/redispool/internal/config"
	"github.com/CoderCookE/redispool/internal/pool"
)

const (
	keyURL  = "url"
	keyPool = "pool"
)

// ErrParse matches every ParseError.
var ErrParse = errors.New("environment config parse error")

// ParseError reports a variable whose value does not fit its field.
type ParseError struct {
	Prefix string
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("envconfig: %s_%s: %v", e.Prefix, strings.ToUpper(e.Key), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Load reads the process environment. See LoadFrom.
func Load(prefix string) (config.Config, error) {
	return LoadFrom(prefix, os.Environ())
}

// LoadFrom reads KEY=VALUE pairs from environ. Only PREFIX_URL and
// PREFIX_POOL.* are used; variables that are not present leave the matching
// field unset. Any PREFIX_POOL.* variable starts from pool.DefaultConfig so
// unset pool fields keep their defaults.
func LoadFrom(prefix string, environ []string) (config.Config, error) {
	v := viper.New()
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		key, ok := trimPrefix(name, prefix)
		if !ok {
			continue
		}
		v.Set(strings.ToLower(key), value)
	}

	var cfg config.Config

	if v.IsSet(keyURL) {
		raw := v.Get(keyURL)
		url, ok := raw.(string)
		if !ok {
			return config.Config{}, &ParseError{Prefix: prefix, Key: keyURL, Err: errors.New("expected a string, got nested keys")}
		}
		cfg.URL = url
	}

	if v.IsSet(keyPool) {
		pc := pool.DefaultConfig()
		hook := viper.DecodeHook(mapstructure.DecodeHookFuncType(durationHook))
		if err := v.UnmarshalKey(keyPool, &pc, hook); err != nil {
			return config.Config{}, &ParseError{Prefix: prefix, Key: keyPool, Err: err}
		}
		if pc.MaxSize < 0 || pc.MaxSize > math.MaxInt32 {
			err := fmt.Errorf("max_size %d out of range [0, %d]", pc.MaxSize, math.MaxInt32)
			return config.Config{}, &ParseError{Prefix: prefix, Key: keyPool, Err: err}
		}
		cfg.Pool = &pc
	}

	return cfg, nil
}

func trimPrefix(name, prefix string) (string, bool) {
	if prefix == "" {
		return name, name != ""
	}

	head := prefix + "_"
	if len(name) <= len(head) || !strings.EqualFold(name[:len(head)], head) {
		return "", false
	}

	return name[len(head):], true
}

var durationType = reflect.TypeOf(time.Duration(0))

const maxSecs = math.MaxInt64 / uint64(time.Second)

// durationHook accepts Go duration strings, whole seconds, or a
// {secs, nanos} group.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}

	switch value := data.(type) {
	case string:
		value = strings.TrimSpace(value)
		if d, err := time.ParseDuration(value); err == nil {
			return d, nil
		}
		secs, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q", value)
		}
		return fromParts(secs, 0)
	case map[string]any:
		return secsNanos(value)
	default:
		return data, nil
	}
}

func secsNanos(parts map[string]any) (time.Duration, error) {
	var secs, nanos uint64

	for key, raw := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(fmt.Sprint(raw)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", key, fmt.Sprint(raw))
		}

		switch key {
		case "secs":
			secs = n
		case "nanos":
			nanos = n
		default:
			return 0, fmt.Errorf("unknown duration field %q", key)
		}
	}

	return fromParts(secs, nanos)
}

// fromParts fails instead of wrapping when the total exceeds time.Duration.
func fromParts(secs, nanos uint64) (time.Duration, error) {
	if secs > maxSecs {
		return 0, fmt.Errorf("duration of %d seconds out of range", secs)
	}
	d := time.Duration(secs) * time.Second
	if nanos > uint64(math.MaxInt64-d) {
		return 0, fmt.Errorf("duration of %ds + %dns out of range", secs, nanos)
	}
	return d + time.Duration(nanos), nil
}
