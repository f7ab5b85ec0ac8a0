package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Durations = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "redispool_durations_seconds",
			Help:       "pool operation latency distributions.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"duration"},
	)

	RecycleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redispool_recycle_failures_total",
			Help: "connections discarded because recycling failed",
		},
		[]string{"pool"},
	)

	CacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redispool_cache",
			Help: "near cache hits and misses",
		},
		[]string{"result"},
	)

	HealthGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "redispool_healthy",
			Help: "1 when the last PING through the pool succeeded",
		},
		[]string{"pool"},
	)
)

func init() {
	prometheus.MustRegister(Durations)
	prometheus.MustRegister(RecycleFailures)
	prometheus.MustRegister(CacheCounter)
	prometheus.MustRegister(HealthGauge)
}

// PoolGauges is a point-in-time view of a pool's slots.
type PoolGauges struct {
	MaxSize   int
	Size      int
	Available int
	InUse     int
}

// RegisterPool exports the gauges returned by status under the given pool name.
func RegisterPool(reg prometheus.Registerer, name string, status func() PoolGauges) error {
	states := map[string]func(PoolGauges) int{
		"max":       func(g PoolGauges) int { return g.MaxSize },
		"size":      func(g PoolGauges) int { return g.Size },
		"available": func(g PoolGauges) int { return g.Available },
		"in_use":    func(g PoolGauges) int { return g.InUse },
	}

	for state, pick := range states {
		pick := pick
		gauge := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "redispool_connections",
				Help:        "number of connections by state",
				ConstLabels: prometheus.Labels{"pool": name, "state": state},
			},
			func() float64 { return float64(pick(status())) },
		)
		if err := reg.Register(gauge); err != nil {
			return err
		}
	}

	return nil
}
