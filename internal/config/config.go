// Package config builds Redis connection pools from a URL and pool settings,
// each of which falls back to a default when unset.
package config

import (
	"github.com/gomodule/redigo/redis"

	"github.com/CoderCookE/redispool/internal/connection"
	"github.com/CoderCookE/redispool/internal/pool"
)

// DefaultURL is used when Config.URL is empty.
const DefaultURL = "redis://127.0.0.1/"

// Config holds the optional settings for a Redis pool. The zero value is
// ready to use.
type Config struct {
	// URL of the Redis server; see connection.NewManager for the accepted forms.
	URL string
	// Pool sizing and timeouts; nil means pool.DefaultConfig.
	Pool *pool.Config
}

// GetURL returns the configured URL, or DefaultURL when none is set.
func (c Config) GetURL() string {
	if c.URL == "" {
		return DefaultURL
	}
	return c.URL
}

// GetPoolConfig returns a copy of the configured pool settings, or
// pool.DefaultConfig when none are set.
func (c Config) GetPoolConfig() pool.Config {
	if c.Pool == nil {
		return pool.DefaultConfig()
	}
	return *c.Pool
}

// CreatePool builds a pool from the effective URL and pool settings. The
// only failure is a malformed URL, reported as connection.ErrInvalidURL. No
// connection is opened until the first Get.
func (c Config) CreatePool(opts ...pool.Option) (*connection.Pool, error) {
	manager, err := connection.NewManager(c.GetURL())
	if err != nil {
		return nil, err
	}

	return pool.New[redis.Conn](manager, c.GetPoolConfig(), opts...), nil
}
