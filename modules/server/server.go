package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vidu-proxy-server/modules/common/config"
	"vidu-proxy-server/modules/common/middleware"
	"vidu-proxy-server/modules/vidu"
)

// NewRouter wires routes and middleware. The returned handler is complete:
// CORS preflights are answered before routing.
func NewRouter(cfg *config.Config, log *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	service := vidu.NewService(vidu.ConfigFrom(cfg), log)
	vidu.NewHandler(service, log).RegisterRoutes(r)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return middleware.Chain(r,
		middleware.Recover(log),
		middleware.RequestID,
		middleware.AccessLog(log),
		middleware.CORS,
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		// a slow upstream call must still fit inside the write deadline
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
