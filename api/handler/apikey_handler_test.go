package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type memoryKeys struct {
	values map[string][]byte
	err    error
}

func (m *memoryKeys) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	value, ok := m.values[key]
	if !ok {
		return nil, service.ErrApiKeyNotFound
	}
	return value, nil
}

func (m *memoryKeys) Put(_ context.Context, key string, contentType string, body []byte) error {
	if contentType != "application/json" {
		return service.ErrInvalidContentType
	}
	if len(body) > service.ValueMaxSize {
		return service.ErrBodyTooLarge
	}
	m.values[key] = body
	return nil
}

func (m *memoryKeys) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func newApiKeyEcho(keys *memoryKeys) *echo.Echo {
	e := echo.New()
	logger := logrus.New()
	logger.SetOutput(nopWriter{})
	e.HTTPErrorHandler = HTTPErrorHandler(logger)
	h := NewApiKeyHandler(keys)
	e.Any("/api-keys/*", h.Key)
	e.Any("/*", h.NotFound)
	return e
}

func doRequest(e *echo.Echo, method, target, contentType, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		request.Header.Set(echo.HeaderContentType, contentType)
	}
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	return recorder
}

func TestApiKeyHandlerFlow(t *testing.T) {
	keys := &memoryKeys{values: map[string][]byte{}}
	e := newApiKeyEcho(keys)
	key := "abcdefghij12"

	rec := doRequest(e, http.MethodGet, "/api-keys/"+key, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", rec.Body.String())
	assert.Equal(t, "max-age=3600", rec.Header().Get("Cache-Control"))

	rec = doRequest(e, http.MethodPut, "/api-keys/"+key, "application/json", `{"tenantId":"tenant-0000001"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/api-keys/"+key, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"tenantId":"tenant-0000001"}`, rec.Body.String())
	assert.Equal(t, "max-age=3600", rec.Header().Get("Cache-Control"))

	rec = doRequest(e, http.MethodDelete, "/api-keys/"+key, "", "")
	assert.Equal(t, "OK", rec.Body.String())
	assert.Empty(t, keys.values)
}

func TestApiKeyHandlerRejections(t *testing.T) {
	e := newApiKeyEcho(&memoryKeys{values: map[string][]byte{}})

	cases := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		status      int
		text        string
	}{
		{"short key", http.MethodGet, "/api-keys/short", "", "", http.StatusBadRequest, "Invalid key"},
		{"nested key", http.MethodGet, "/api-keys/abcdefghij/klm", "", "", http.StatusBadRequest, "Invalid key"},
		{"content type", http.MethodPut, "/api-keys/abcdefghij12", "text/plain", "{}", http.StatusBadRequest, "Invalid content type"},
		{"too large", http.MethodPut, "/api-keys/abcdefghij12", "application/json", strings.Repeat("a", 600), http.StatusBadRequest, "Request body too large"},
		{"post", http.MethodPost, "/api-keys/abcdefghij12", "", "", http.StatusMethodNotAllowed, "Invalid method"},
		{"other path", http.MethodGet, "/elsewhere", "", "", http.StatusNotFound, "Not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(e, tc.method, tc.target, tc.contentType, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.text, rec.Body.String())
		})
	}
}

func TestApiKeyHandlerStoreFailure(t *testing.T) {
	e := newApiKeyEcho(&memoryKeys{err: errors.New("redis down")})
	rec := doRequest(e, http.MethodGet, "/api-keys/abcdefghij12", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal error", rec.Body.String())
}
