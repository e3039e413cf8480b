package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/metrics"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/labstack/echo/v4"
)

// StaticSites is the site rendering surface consumed by StaticHandler.
type StaticSites interface {
	Serve(ctx context.Context, page service.SitePage) (*entity.CachedResponse, bool, error)
	Purge(ctx context.Context, page service.SitePage, authorization string) (bool, error)
}

type StaticHandler struct {
	Service StaticSites
}

func NewStaticHandler(svc StaticSites) *StaticHandler {
	return &StaticHandler{Service: svc}
}

const MethodPurge = "PURGE"

func (h *StaticHandler) Page(c echo.Context) error {
	request := c.Request()
	page := service.NewSitePage(c.Scheme(), request.Host, request.URL.Path, request.Header.Get("Cookie"))

	switch request.Method {
	case http.MethodGet:
		return h.serve(c, page)
	case MethodPurge:
		return h.purge(c, page)
	}
	return c.String(http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *StaticHandler) serve(c echo.Context, page service.SitePage) error {
	response, hit, err := h.Service.Serve(c.Request().Context(), page)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error").SetInternal(err)
	}

	header := c.Response().Header()
	for name, value := range response.Headers {
		header.Set(name, value)
	}
	if hit {
		metrics.StaticCache.WithLabelValues("hit").Inc()
		header.Set("X-Cache", "HIT")
	} else {
		metrics.StaticCache.WithLabelValues("miss").Inc()
		header.Set("X-Cache", "MISS")
	}

	contentType := response.Headers["Content-Type"]
	if contentType == "" && len(response.Body) > 0 {
		contentType = echo.MIMEOctetStream
	}
	if len(response.Body) == 0 {
		return c.NoContent(response.Status)
	}
	return c.Blob(response.Status, contentType, response.Body)
}

func (h *StaticHandler) purge(c echo.Context, page service.SitePage) error {
	removed, err := h.Service.Purge(c.Request().Context(), page, c.Request().Header.Get("Authorization"))
	if errors.Is(err, service.ErrPurgeUnauthorized) {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error").SetInternal(err)
	}
	if removed {
		metrics.StaticCache.WithLabelValues("purged").Inc()
	}
	return c.String(http.StatusOK, "Purged")
}
