package serverapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ramzan/internal/logger"
)

const shutdownGrace = 5 * time.Second

// ListenAndServe blocks until ctx is cancelled or the listener fails, then
// drains in-flight requests.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.Std(slog.LevelError),
	}

	errc := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	log.InfoContext(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
