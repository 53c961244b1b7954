// Package httpserver exposes the cache's management surface: health,
// Prometheus metrics, and the maintenance operations (stats, clear). The
// cache itself is a library consumed in-process; this server only carries
// its operational endpoints.
package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/offlinefirst/swr-cache/internal/application/services"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// HealthTimeout bounds the whole set of dependency probes on /health.
	// Zero means 2s.
	HealthTimeout time.Duration
}

type ServerDeps struct {
	Maintenance    *services.MaintenanceService
	HealthCheckers []ports.HealthChecker
	// Backend names the storage medium the cache runs on; reported on
	// /health so operators see which backend a degraded probe refers to.
	Backend string
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	maintenance    *services.MaintenanceService
	healthCheckers []ports.HealthChecker
	backend        string
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		maintenance:    deps.Maintenance,
		healthCheckers: deps.HealthCheckers,
		backend:        deps.Backend,
	}

	e.Use(middleware.Recover())
	e.Use(server.collectHTTPMetrics())
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)
	s.echo.GET("/cache/stats", s.cacheStats)
	s.echo.DELETE("/cache", s.cacheClear)
}
