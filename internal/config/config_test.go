package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderCookE/redispool/internal/connection"
	"github.com/CoderCookE/redispool/internal/pool"
)

func TestDefaults(t *testing.T) {
	var cfg Config

	assert.Equal(t, "redis://127.0.0.1/", cfg.GetURL())
	assert.Equal(t, pool.DefaultConfig(), cfg.GetPoolConfig())
	// repeated calls see the same defaults
	assert.Equal(t, cfg.GetURL(), cfg.GetURL())
	assert.Equal(t, cfg.GetPoolConfig(), cfg.GetPoolConfig())
}

func TestGetURL(t *testing.T) {
	for _, raw := range []string{"redis://example.com/", "not a url", "  spaced  ", "rediss://u:p@h:1/2"} {
		cfg := Config{URL: raw}
		assert.Equal(t, raw, cfg.GetURL())
	}
}

func TestGetPoolConfig(t *testing.T) {
	original := pool.Config{
		MaxSize: 7,
		Timeouts: pool.Timeouts{
			Wait:   time.Second,
			Create: 2 * time.Second,
		},
	}
	cfg := Config{Pool: &original}

	got := cfg.GetPoolConfig()
	assert.Equal(t, original, got)

	original.MaxSize = 99
	original.Timeouts.Wait = 0
	assert.Equal(t, 7, got.MaxSize)
	assert.Equal(t, time.Second, got.Timeouts.Wait)
}

func TestCreatePool(t *testing.T) {
	t.Run("valid url", func(t *testing.T) {
		cfg := Config{
			URL:  "redis://127.0.0.1/",
			Pool: &pool.Config{MaxSize: 3},
		}

		p, err := cfg.CreatePool(pool.WithName("test"))
		require.NoError(t, err)
		require.NotNil(t, p)
		defer p.Close()

		assert.Equal(t, pool.Status{MaxSize: 3}, p.Status())
		assert.Equal(t, 3, p.Config().MaxSize)
	})

	t.Run("defaults", func(t *testing.T) {
		p, err := Config{}.CreatePool()
		require.NoError(t, err)
		defer p.Close()

		assert.Equal(t, pool.DefaultConfig().MaxSize, p.Status().MaxSize)
		assert.Equal(t, 0, p.Status().Size)
	})

	t.Run("invalid url", func(t *testing.T) {
		p, err := Config{URL: "not a url"}.CreatePool()
		assert.Nil(t, p)
		assert.ErrorIs(t, err, connection.ErrInvalidURL)
	})

	t.Run("no dial before get", func(t *testing.T) {
		// nothing listens on port 1, so any dial would fail
		p, err := Config{
			URL:  "redis://127.0.0.1:1/",
			Pool: &pool.Config{MaxSize: 1, Timeouts: pool.Timeouts{Create: time.Second}},
		}.CreatePool()
		require.NoError(t, err)
		defer p.Close()

		assert.Equal(t, 0, p.Status().Size)

		_, err = p.Get(context.Background())
		assert.Error(t, err)
	})
}
