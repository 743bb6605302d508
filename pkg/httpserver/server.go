// Package httpserver runs an http.Server with graceful shutdown tied to a
// context.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// Run starts the server and blocks until ctx is cancelled or the listener
// fails. On cancellation it drains in-flight requests for up to
// cfg.ShutdownTimeout before returning.
func Run(ctx context.Context, cfg Config, handler http.Handler, log *slog.Logger) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
