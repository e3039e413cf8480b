package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TakenPilot/cloudflare-workers/api/handler"
	"github.com/TakenPilot/cloudflare-workers/api/middleware"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type mapApiKeys map[string][]byte

func (m mapApiKeys) Get(_ context.Context, key string) ([]byte, error) { return m[key], nil }
func (m mapApiKeys) Put(_ context.Context, key string, value []byte) error {
	m[key] = value
	return nil
}
func (m mapApiKeys) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

var _ repository.ApiKeyRepository = mapApiKeys{}

func TestApiKeyRoutesEndToEnd(t *testing.T) {
	store := mapApiKeys{}
	svc := service.NewApiKeyService(store, service.ApiKeyConfig{
		AllowedOrigins: []string{"https://admin.example.com"},
		AuthKeys:       []string{"authkey123"},
	})
	e := echo.New()
	NewRouter(e, nil).RegisterApiKeys(handler.NewApiKeyHandler(svc), svc)

	body := `{"key":"ignored","tenantId":"tenant-00000001","expires":1700000000,"policies":[{"name":"policy-000001","config":{}}]}`
	request := httptest.NewRequest(http.MethodPut, "/api-keys/abcdefghijk", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Origin", "https://admin.example.com")
	request.Header.Set("Authorization", "authkey123")
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "OK", recorder.Body.String())
	assert.Contains(t, string(store["abcdefghijk"]), `"key":"abcdefghijk"`)

	request = httptest.NewRequest(http.MethodDelete, "/api-keys/abcdefghijk", nil)
	request.Header.Set("Origin", "https://evil.example.com")
	recorder = httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "Invalid origin", recorder.Body.String())

	request = httptest.NewRequest(http.MethodOptions, "/anything", nil)
	recorder = httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "GET, PUT, POST, DELETE", recorder.Header().Get("Access-Control-Allow-Methods"))

	request = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder = httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	assert.Equal(t, "ok", recorder.Body.String())
}

func TestNewsletterRoutesRegisterAliases(t *testing.T) {
	e := echo.New()
	NewRouter(e, nil).RegisterNewsletters(NewsletterRoutes{
		Handler:        handler.NewNewsletterHandler(nil, nil),
		AuthMiddleware: middleware.AuthMiddleware{},
	})

	registered := map[string]bool{}
	for _, route := range e.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, path := range []string{"/subscribe", "/signup", "/join", "/unsubscribe", "/optout", "/leave", "/confirm", "/verify", "/resend-confirmation"} {
		assert.True(t, registered["POST "+path], path)
	}
	assert.True(t, registered["GET /subscribers"])
	assert.True(t, registered["GET /metrics"])

	request := httptest.NewRequest(http.MethodGet, "/subscribers", nil)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
