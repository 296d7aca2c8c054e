package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/config"
	"github.com/gautamnaik0719/noormeds/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Snapshotter produces an inventory export file and returns its path.
type Snapshotter interface {
	Snapshot(ctx context.Context) (string, error)
}

// Server exposes the stock operations over HTTP JSON.
type Server struct {
	cfg      config.APIConfig
	stock    domain.StockService
	exporter Snapshotter
	logger   zerolog.Logger
	server   *http.Server
	limiter  *ipLimiter
}

func NewServer(cfg config.APIConfig, monitoring config.MonitoringConfig, stock domain.StockService, exporter Snapshotter, logger *zerolog.Logger) *Server {
	srv := &Server{
		cfg:      cfg,
		stock:    stock,
		exporter: exporter,
		logger:   logger.With().Str("component", "api").Logger(),
		limiter:  newIPLimiter(cfg.RateLimit),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/items", srv.handleItems)
	mux.HandleFunc("/api/v1/items/restock", srv.handleRestock)
	mux.HandleFunc("/api/v1/items/consume", srv.handleConsume)
	mux.HandleFunc("/api/v1/archive", srv.handleArchive)
	mux.HandleFunc("/api/v1/names", srv.handleNames)
	mux.HandleFunc("/api/v1/doses", srv.handleDoses)
	mux.HandleFunc("/api/v1/locations", srv.handleLocations)
	mux.HandleFunc("/api/v1/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)
	if monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(srv.rateLimitMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler exposes the composed handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
