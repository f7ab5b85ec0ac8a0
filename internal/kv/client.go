package kv

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/gomodule/redigo/redis"

	"github.com/CoderCookE/redispool/internal/connection"
	"github.com/CoderCookE/redispool/internal/stats"
)

// Options enables the in-process read cache in front of Redis.
type Options struct {
	CacheEnabled bool
	// CacheTTL bounds how stale a cached value may be; zero keeps entries
	// until they are evicted or overwritten through this client.
	CacheTTL time.Duration
	// CacheMaxCost is the cache budget in bytes of cached values.
	CacheMaxCost int64
}

// Client runs string commands on connections borrowed from a pool.
type Client struct {
	pool  *connection.Pool
	cache *ristretto.Cache
	ttl   time.Duration
}

func New(p *connection.Pool, opts Options) (*Client, error) {
	cache, err := buildCache(opts)
	if err != nil {
		return nil, err
	}

	return &Client{
		pool:  p,
		cache: cache,
		ttl:   opts.CacheTTL,
	}, nil
}

func buildCache(opts Options) (*ristretto.Cache, error) {
	if !opts.CacheEnabled {
		return nil, nil
	}

	maxCost := opts.CacheMaxCost
	if maxCost <= 0 {
		maxCost = 1 << 30
	}

	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
}

// Get returns the value of key and whether it exists.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	if c.cache != nil {
		if value, found := c.cache.Get(key); found {
			stats.CacheCounter.WithLabelValues("hit").Inc()
			return value.(string), true, nil
		}
		stats.CacheCounter.WithLabelValues("miss").Inc()
	}

	value, err := redis.String(c.do(ctx, "GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	c.remember(key, value)
	return value, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	if _, err := c.do(ctx, "SET", key, value); err != nil {
		return err
	}

	c.remember(key, value)
	return nil
}

// Del removes key and reports whether it existed.
func (c *Client) Del(ctx context.Context, key string) (bool, error) {
	if c.cache != nil {
		c.cache.Del(key)
	}

	n, err := redis.Int(c.do(ctx, "DEL", key))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the cache. The pool is owned by the caller.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

func (c *Client) remember(key, value string) {
	if c.cache == nil {
		return
	}
	c.cache.SetWithTTL(key, value, int64(len(value))+1, c.ttl)
}

func (c *Client) do(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	obj, err := c.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	conn := obj.Value()
	reply, err := redis.DoContext(conn, ctx, cmd, args...)
	if conn.Err() != nil {
		obj.Discard()
	} else {
		obj.Release()
	}

	return reply, err
}
