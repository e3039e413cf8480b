package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/TakenPilot/cloudflare-workers/internal/metrics"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/labstack/echo/v4"
)

// ApiKeys is the key store surface consumed by ApiKeyHandler.
type ApiKeys interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, contentType string, body []byte) error
	Delete(ctx context.Context, key string) error
}

type ApiKeyHandler struct {
	Service ApiKeys
}

func NewApiKeyHandler(svc ApiKeys) *ApiKeyHandler {
	return &ApiKeyHandler{Service: svc}
}

// Key serves /api-keys/<key> for GET, PUT and DELETE.
func (h *ApiKeyHandler) Key(c echo.Context) error {
	key := c.Param("*")
	request := c.Request()
	if !service.IsValidKey(key) {
		return h.text(c, http.StatusBadRequest, service.ErrInvalidKey.Error())
	}

	switch request.Method {
	case http.MethodGet:
		c.Response().Header().Set("Cache-Control", "max-age=3600")
		value, err := h.Service.Get(request.Context(), key)
		if err != nil {
			return h.writeError(c, err)
		}
		h.count(c, http.StatusOK)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, value)
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(request.Body, service.ValueMaxSize+1))
		if err != nil {
			return h.text(c, http.StatusBadRequest, service.ErrInvalidJSON.Error())
		}
		if err := h.Service.Put(request.Context(), key, request.Header.Get(echo.HeaderContentType), body); err != nil {
			return h.writeError(c, err)
		}
		return h.text(c, http.StatusOK, "OK")
	case http.MethodDelete:
		if err := h.Service.Delete(request.Context(), key); err != nil {
			return h.writeError(c, err)
		}
		return h.text(c, http.StatusOK, "OK")
	}
	return h.text(c, http.StatusMethodNotAllowed, "Invalid method")
}

func (h *ApiKeyHandler) NotFound(c echo.Context) error {
	return h.text(c, http.StatusNotFound, service.ErrApiKeyNotFound.Error())
}

func (h *ApiKeyHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrApiKeyNotFound):
		return h.text(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, service.ErrInvalidContentType),
		errors.Is(err, service.ErrBodyTooLarge),
		errors.Is(err, service.ErrInvalidJSON),
		errors.Is(err, service.ErrInvalidObject),
		errors.Is(err, service.ErrInvalidApiKeyInfo):
		return h.text(c, http.StatusBadRequest, err.Error())
	}
	h.count(c, http.StatusInternalServerError)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal error").SetInternal(err)
}

func (h *ApiKeyHandler) text(c echo.Context, status int, body string) error {
	h.count(c, status)
	return c.String(status, body)
}

func (h *ApiKeyHandler) count(c echo.Context, status int) {
	metrics.ApiKeyRequests.WithLabelValues(c.Request().Method, strconv.Itoa(status)).Inc()
}
