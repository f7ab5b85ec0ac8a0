package gracefulserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CoderCookE/redispool/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// GracefulServer stops accepting requests on SIGTERM or SIGINT, drains
// in-flight ones and then runs the registered shutdown hooks in order.
type GracefulServer struct {
	*http.Server
	logger       *slog.Logger
	hooks        []func()
	errChan      chan error
	shutdownChan chan os.Signal
}

func New(server *http.Server, logger *slog.Logger) *GracefulServer {
	gs := &GracefulServer{
		Server:       server,
		logger:       logger,
		errChan:      make(chan error, 1),
		shutdownChan: make(chan os.Signal, 1),
	}

	signal.Notify(gs.shutdownChan, syscall.SIGTERM, syscall.SIGINT)

	return gs
}

// OnShutdown registers f to run after the HTTP server has stopped.
func (gs *GracefulServer) OnShutdown(f func()) {
	gs.hooks = append(gs.hooks, f)
}

func (gs *GracefulServer) ListenAndServe() error {
	go func() {
		err := gs.Server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		gs.errChan <- err
	}()

	return gs.listenForSignals()
}

func (gs *GracefulServer) listenForSignals() error {
	select {
	case err := <-gs.errChan:
		signal.Stop(gs.shutdownChan)
		gs.runHooks()
		return err
	case sig := <-gs.shutdownChan:
		signal.Stop(gs.shutdownChan)
		logging.Info(gs.logger, "gracefully shutting down", "signal", sig.String())
		defer logging.Info(gs.logger, "graceful shutdown complete")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := gs.Server.Shutdown(ctx)
		gs.runHooks()
		return err
	}
}

func (gs *GracefulServer) runHooks() {
	for _, hook := range gs.hooks {
		hook()
	}
}
