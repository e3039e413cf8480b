package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	Checks map[string]HealthCheck
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, name+" unavailable").SetInternal(err)
		}
	}
	return c.String(http.StatusOK, "ok")
}
