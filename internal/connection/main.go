package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/gomodule/redigo/redis"

	"github.com/CoderCookE/redispool/internal/pool"
)

// ErrInvalidURL is wrapped by every NewManager failure.
var ErrInvalidURL = errors.New("invalid redis url")

var pathDB = regexp.MustCompile(`^(/[0-9]*)?$`)

// Pool is a pool of Redis connections.
type Pool = pool.Pool[redis.Conn]

// Manager dials Redis connections for a single parsed URL.
type Manager struct {
	target  target
	options []redis.DialOption
}

type target struct {
	network  string
	address  string
	username string
	password string
	db       int
	tls      bool
}

// NewManager parses rawURL. It does not dial; extra options are applied to
// every connection after the ones derived from the URL.
func NewManager(rawURL string, opts ...redis.DialOption) (*Manager, error) {
	t, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	options := []redis.DialOption{
		redis.DialDatabase(t.db),
		redis.DialUseTLS(t.tls),
	}
	if t.username != "" {
		options = append(options, redis.DialUsername(t.username))
	}
	if t.password != "" {
		options = append(options, redis.DialPassword(t.password))
	}

	return &Manager{
		target:  t,
		options: append(options, opts...),
	}, nil
}

func (m *Manager) Network() string {
	return m.target.network
}

func (m *Manager) Address() string {
	return m.target.address
}

func (m *Manager) Create(ctx context.Context) (redis.Conn, error) {
	return redis.DialContext(ctx, m.target.network, m.target.address, m.options...)
}

// Recycle rejects connections in an error state and those that no longer
// answer PING.
func (m *Manager) Recycle(ctx context.Context, c redis.Conn) error {
	if err := c.Err(); err != nil {
		return err
	}

	reply, err := redis.String(redis.DoContext(c, ctx, "PING"))
	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("unexpected PING reply %q", reply)
	}

	return nil
}

func (m *Manager) Destroy(c redis.Conn) {
	c.Close()
}

func parseURL(rawURL string) (target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return target{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	invalid := func(format string, args ...any) (target, error) {
		return target{}, fmt.Errorf("%w %q: %s", ErrInvalidURL, u.Redacted(), fmt.Sprintf(format, args...))
	}

	if u.Opaque != "" {
		return invalid("missing //")
	}

	switch u.Scheme {
	case "redis", "rediss":
		host := u.Hostname()
		if host == "" {
			host = "localhost"
		}
		port := u.Port()
		if port == "" {
			port = "6379"
		}

		if !pathDB.MatchString(u.Path) {
			return invalid("database must be a number, got %q", u.Path)
		}
		db := 0
		if len(u.Path) > 1 {
			if db, err = strconv.Atoi(u.Path[1:]); err != nil {
				return invalid("database out of range: %s", u.Path[1:])
			}
		}

		t := target{
			network: "tcp",
			address: net.JoinHostPort(host, port),
			db:      db,
			tls:     u.Scheme == "rediss",
		}

		if u.User != nil {
			username := u.User.Username()
			if password, ok := u.User.Password(); ok {
				t.username = username
				t.password = password
			} else {
				t.password = username
			}
		}

		return t, nil

	case "unix", "redis+unix":
		if u.Path == "" {
			return invalid("missing socket path")
		}

		q := u.Query()
		db := 0
		if raw := q.Get("db"); raw != "" {
			db, err = strconv.Atoi(raw)
			if err != nil || db < 0 {
				return invalid("database must be a number, got %q", raw)
			}
		}

		return target{
			network:  "unix",
			address:  u.Path,
			username: q.Get("user"),
			password: q.Get("pass"),
			db:       db,
		}, nil

	default:
		return invalid("unsupported scheme %q", u.Scheme)
	}
}
