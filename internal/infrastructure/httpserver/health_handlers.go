package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// healthCheck probes the storage backend's checkers and reports per
// dependency. A failing dependency degrades the overall status; the cache
// itself keeps serving reads either way, so "degraded" here means the
// persistence medium is unreachable, not that the process is down.
func (s *Server) healthCheck(c echo.Context) error {
	timeout := s.config.HealthTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	deps := make(map[string]string)
	overall := "healthy"
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if err := hc.Check(ctx); err != nil {
			deps[hc.Name()] = "unhealthy"
			overall = "degraded"
		} else {
			deps[hc.Name()] = "healthy"
		}
	}

	payload := map[string]interface{}{
		"status":          overall,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"service":         "swr-cache",
		"storage_backend": s.backend,
		"dependencies":    deps,
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, payload)
}
