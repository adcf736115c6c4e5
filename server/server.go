package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/aluiziolira/go-beer-menu/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Server is the query API with its HTTP lifecycle.
type Server struct {
	router  *gin.Engine
	server  *http.Server
	metrics *Metrics
}

// NewRouter builds the gin engine with recovery, request logging, the API
// routes and /metrics.
func NewRouter(h *Handler, m *Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(m))
	h.SetupRoutes(router)
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
	return router
}

// New wires file-backed sources from cfg.
func New(cfg *config.ServerConfig) *Server {
	if cfg.Verbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewHandler(
		pipeline.NewFileStore(cfg.SnapshotFile, ""),
		pipeline.NewRunLog(cfg.RunLogFile, 0),
		pipeline.NewChangelog(cfg.ChangelogFile, 0),
		cfg.StaleAfter,
	)
	metrics := NewMetrics()
	router := NewRouter(handler, metrics)

	return &Server{
		router:  router,
		metrics: metrics,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("query server listening", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("query server stopped")
	return nil
}
