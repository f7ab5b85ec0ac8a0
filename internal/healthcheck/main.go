package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/CoderCookE/redispool/internal/connection"
	"github.com/CoderCookE/redispool/internal/logging"
	"github.com/CoderCookE/redispool/internal/stats"
)

const defaultInterval = 5 * time.Second

type HealthChecker struct {
	sync.RWMutex
	pool     *connection.Pool
	name     string
	interval time.Duration
	logger   *slog.Logger
	healthy  bool
	checked  bool
	done     chan struct{}
	once     sync.Once
}

// New returns a checker that PINGs through p every interval once started.
// The pool starts out reported as unhealthy.
func New(p *connection.Pool, name string, interval time.Duration, logger *slog.Logger) *HealthChecker {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &HealthChecker{
		pool:     p,
		name:     name,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start checks immediately and then on every tick until Shutdown is called
// or ctx is done.
func (hc *HealthChecker) Start(ctx context.Context) {
	hc.Check(ctx)

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hc.Check(ctx)
		case <-hc.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Check runs one PING, bounded by the check interval, and records the result.
// The first result is always exported and logged; later ones only on change.
func (hc *HealthChecker) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, hc.interval)
	defer cancel()

	err := hc.ping(ctx)
	healthy := err == nil

	hc.Lock()
	changed := !hc.checked || healthy != hc.healthy
	hc.healthy = healthy
	hc.checked = true
	hc.Unlock()

	if changed {
		updateStates(hc.name, healthy)
		if healthy {
			logging.Info(hc.logger, "redis healthy", logging.FieldPool, hc.name)
		} else {
			logging.Error(hc.logger, "redis unhealthy", err, logging.FieldPool, hc.name)
		}
	}

	return healthy
}

func (hc *HealthChecker) Healthy() bool {
	hc.RLock()
	defer hc.RUnlock()

	return hc.healthy
}

func (hc *HealthChecker) Shutdown() {
	hc.once.Do(func() {
		close(hc.done)
	})
}

func (hc *HealthChecker) ping(ctx context.Context) error {
	obj, err := hc.pool.Get(ctx)
	if err != nil {
		return err
	}

	conn := obj.Value()
	reply, err := redis.String(redis.DoContext(conn, ctx, "PING"))
	if conn.Err() != nil {
		obj.Discard()
	} else {
		obj.Release()
	}

	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("unexpected PING reply %q", reply)
	}

	return nil
}

func updateStates(name string, healthy bool) {
	if healthy {
		stats.HealthGauge.WithLabelValues(name).Set(1)
	} else {
		stats.HealthGauge.WithLabelValues(name).Set(0)
	}
}
