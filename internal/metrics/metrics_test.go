package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(StaticCache.WithLabelValues("hit"))
	StaticCache.WithLabelValues("hit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StaticCache.WithLabelValues("hit")))
}

func TestMiddlewareObservesRequests(t *testing.T) {
	e := echo.New()
	e.Use(Middleware("test"))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration, "edge_http_request_duration_seconds"), 1)
}
