package stats

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPool(t *testing.T) {
	t.Run("exports every state", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		err := RegisterPool(reg, "cache", func() PoolGauges {
			return PoolGauges{MaxSize: 8, Size: 3, Available: 1, InUse: 2}
		})
		require.NoError(t, err)

		expected := `
# HELP redispool_connections number of connections by state
# TYPE redispool_connections gauge
redispool_connections{pool="cache",state="available"} 1
redispool_connections{pool="cache",state="in_use"} 2
redispool_connections{pool="cache",state="max"} 8
redispool_connections{pool="cache",state="size"} 3
`
		err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "redispool_connections")
		assert.NoError(t, err)
	})

	t.Run("rejects a duplicate pool name", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		status := func() PoolGauges { return PoolGauges{} }

		require.NoError(t, RegisterPool(reg, "dup", status))
		assert.Error(t, RegisterPool(reg, "dup", status))
	})
}

func TestCacheCounter(t *testing.T) {
	before := testutil.ToFloat64(CacheCounter.WithLabelValues("hit"))
	CacheCounter.WithLabelValues("hit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CacheCounter.WithLabelValues("hit")))
}
