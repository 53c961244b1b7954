package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// cacheStats reports the aggregate footprint of the cache namespace.
func (s *Server) cacheStats(c echo.Context) error {
	stats, err := s.maintenance.Stats(c.Request().Context())
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to compute cache stats")
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to compute cache stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// cacheClear removes every entry under the cache namespace. Used for
// manual cache-busting, e.g. after a schema version upgrade or logout.
func (s *Server) cacheClear(c echo.Context) error {
	if err := s.maintenance.ClearAll(c.Request().Context()); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to clear cache")
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to clear cache"})
	}
	return c.NoContent(http.StatusNoContent)
}
