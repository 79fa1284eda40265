package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apiconfig "stock_research/pkg/api/config"
	apiresearch "stock_research/pkg/api/research"
	"stock_research/pkg/core/config"
	"stock_research/pkg/core/research"

	"github.com/go-chi/httplog/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// NewServer builds the research service from cfg and wraps its router in an
// http.Server listening on cfg.Server.Addr.
func NewServer(cfg config.Config, mode research.RenderMode, logger *zap.Logger) (*http.Server, error) {
	svc, mgr, err := research.FromConfig(cfg, mode, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build research service: %w", err)
	}

	requestLog := httplog.NewLogger("stock-research", httplog.Options{
		JSON:    cfg.Log.JSON,
		Concise: true,
	})
	router := NewRouter(apiresearch.NewHandler(svc, cfg.ReportsDir), apiconfig.NewHandler(mgr), requestLog)

	logger.Info("API server configured",
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", mgr.ActiveProvider()),
	)
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Serve runs srv until it fails or ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
