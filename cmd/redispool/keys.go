package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/CoderCookE/redispool/internal/kv"
	"github.com/CoderCookE/redispool/internal/logging"
)

const maxValueBytes = 1 << 20

type keyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) (bool, error)
}

var _ keyStore = (*kv.Client)(nil)

// keysHandler serves GET, PUT and DELETE on /keys/{key} through the pool.
func keysHandler(store keyStore, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		value, ok, err := store.Get(r.Context(), r.PathValue("key"))
		if err != nil {
			backendError(w, logger, err)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		io.WriteString(w, value)
	})

	mux.HandleFunc("PUT /keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}

		if err := store.Set(r.Context(), r.PathValue("key"), string(body)); err != nil {
			backendError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		deleted, err := store.Del(r.Context(), r.PathValue("key"))
		if err != nil {
			backendError(w, logger, err)
			return
		}
		if !deleted {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func backendError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logging.Warn(logger, "redis command failed", "error", err)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}
