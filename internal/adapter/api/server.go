// Package api exposes the operator HTTP surface: the live incident snapshot,
// status writes, focus control, nearby resources, and per-incident
// sub-records, plus health, readiness, and metrics endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the HTTP server and its gin router.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the operator API server.
func NewServer(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handler{deps: deps}

	router.GET("/healthz", h.health)
	router.GET("/readyz", h.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(deps.Verifier, deps.Logger))
	{
		v1.GET("/incidents", h.listIncidents)
		v1.PATCH("/incidents/:id/status", h.updateStatus)
		v1.GET("/incidents/:id/evidence", h.evidence)
		v1.GET("/incidents/:id/contacts", h.contacts)
		v1.POST("/incidents/:id/focus", h.focus)
		v1.DELETE("/focus", h.clearFocus)
		v1.GET("/resources", h.resources)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: deps.Logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
