package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CoderCookE/redispool/internal/envconfig"
	"github.com/CoderCookE/redispool/internal/gracefulserver"
	"github.com/CoderCookE/redispool/internal/healthcheck"
	"github.com/CoderCookE/redispool/internal/kv"
	"github.com/CoderCookE/redispool/internal/logging"
	"github.com/CoderCookE/redispool/internal/pool"
	"github.com/CoderCookE/redispool/internal/stats"
)

type options struct {
	prefix         string
	listen         string
	healthInterval time.Duration
	cache          bool
	cacheTTL       time.Duration
	logLevel       string
	logFormat      string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	instance := uuid.New()
	logger := logging.NewLogger(logging.Config{Level: opts.logLevel, Format: opts.logFormat}).
		With(logging.FieldInstance, instance.String())

	if err := run(opts, instance, logger); err != nil {
		logging.Error(logger, "exiting", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("redispool", flag.ContinueOnError)
	fs.StringVar(&opts.prefix, "prefix", "REDIS", "Environment variable prefix, e.g. REDIS reads REDIS_URL and REDIS_POOL.*")
	fs.StringVar(&opts.listen, "listen", ":8080", "Address serving /metrics, /health and /keys/")
	fs.DurationVar(&opts.healthInterval, "health-interval", 5*time.Second, "Interval between PINGs")
	fs.BoolVar(&opts.cache, "cache", false, "Serve /keys reads from an in-process cache")
	fs.DurationVar(&opts.cacheTTL, "cache-ttl", time.Minute, "Lifetime of cached values, 0 keeps them until evicted")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "text or json")

	err := fs.Parse(args)
	return opts, err
}

func run(opts options, instance uuid.UUID, logger *slog.Logger) error {
	cfg, err := envconfig.Load(opts.prefix)
	if err != nil {
		return fmt.Errorf("loading %s_* environment: %w", opts.prefix, err)
	}

	name := fmt.Sprintf("%s-%s", strings.ToLower(opts.prefix), instance.String()[:8])

	p, err := cfg.CreatePool(pool.WithLogger(logger), pool.WithName(name))
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}

	err = stats.RegisterPool(prometheus.DefaultRegisterer, name, func() stats.PoolGauges {
		st := p.Status()
		return stats.PoolGauges{MaxSize: st.MaxSize, Size: st.Size, Available: st.Available, InUse: st.InUse}
	})
	if err != nil {
		p.Close()
		return fmt.Errorf("registering pool metrics: %w", err)
	}

	client, err := kv.New(p, kv.Options{CacheEnabled: opts.cache, CacheTTL: opts.cacheTTL})
	if err != nil {
		p.Close()
		return fmt.Errorf("creating cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hc := healthcheck.New(p, name, opts.healthInterval, logger)
	go hc.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	mux.Handle("/health", healthHandler(hc))
	mux.Handle("/keys/", keysHandler(client, logger))

	server := gracefulserver.New(&http.Server{
		Addr:         opts.listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}, logger)
	server.OnShutdown(hc.Shutdown)
	server.OnShutdown(cancel)
	server.OnShutdown(client.Close)
	server.OnShutdown(p.Close)

	poolCfg := p.Config()
	logging.Info(logger, "starting",
		logging.FieldPool, name,
		logging.FieldURL, redact(cfg.GetURL()),
		"max_size", poolCfg.MaxSize,
		"wait_timeout", poolCfg.Timeouts.Wait,
		"cache", opts.cache,
		"listen", opts.listen,
	)

	return server.ListenAndServe()
}

type healthReporter interface {
	Healthy() bool
}

type healthResponse struct {
	State string `json:"state"`
}

func healthHandler(hc healthReporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		res := healthResponse{State: "healthy"}
		if !hc.Healthy() {
			res.State = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(res)
	})
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparsable>"
	}
	return u.Redacted()
}
