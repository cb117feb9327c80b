package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/ChainDemux/internal/common"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const systemMetricsInterval = 15 * time.Second

// Server exposes the Prometheus collectors and a liveness endpoint backed by component health.
type Server struct {
	config *config.MetricsConfig
	log    *logger.Logger

	server   *http.Server
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewServer creates a new metrics server.
func NewServer(config *config.MetricsConfig, log *logger.Logger) *Server {
	return &Server{
		config: config,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Handler returns the routes served by the metrics server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.Handler())
	mux.HandleFunc("/health", serveHealth)

	return mux
}

// serveHealth answers 200 while every reporting component is healthy and 503 naming the failed ones
// otherwise, for example after the watcher stopped on an unresolved fork.
func serveHealth(w http.ResponseWriter, _ *http.Request) {
	if unhealthy := UnhealthyComponents(); len(unhealthy) > 0 {
		http.Error(w, "unhealthy: "+strings.Join(unhealthy, ","), http.StatusServiceUnavailable)
		return
	}

	_, _ = w.Write([]byte("OK"))
}

// Start starts serving in the background and refreshes system metrics until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.server = &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	UpdateSystemMetrics()
	go s.refreshSystemMetrics(ctx)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("metrics server error: %v", err)
			ComponentHealthSet(common.ComponentMetrics, false)
		}
	}()

	ComponentHealthSet(common.ComponentMetrics, true)
	s.log.Infof("metrics server listening on %s%s", s.config.ListenAddress, s.config.Path)

	return nil
}

// Stop shuts the HTTP server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.stopOnce.Do(func() { close(s.stopCh) })

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}

	return nil
}

func (s *Server) refreshSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			UpdateSystemMetrics()
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}
