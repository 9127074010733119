package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"blogquery/app/config"
	"blogquery/app/logger"
	"blogquery/app/repositories"
	"blogquery/app/routes"
)

// Serve opens the configured store and runs the query service until ctx is
// done. In-flight requests get cfg.ShutdownTimeout to finish.
func Serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, err := repositories.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return run(ctx, ln, store, cfg, log)
}

// NewServer returns an http.Server for handler with timeouts derived from cfg.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func run(ctx context.Context, ln net.Listener, store repositories.PostStore, cfg *config.Config, log *logger.Logger) error {
	srv := NewServer(cfg, routes.SetupRoutes(store, cfg, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info("Query service listening", "addr", ln.Addr().String(), "store", cfg.StoreDriver)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down query service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
