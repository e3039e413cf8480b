package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NewsletterOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_newsletter_outcomes_total",
			Help: "Newsletter operations by operation and outcome tag",
		},
		[]string{"operation", "outcome"},
	)

	ApiKeyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_api_key_requests_total",
			Help: "API key requests by method and status code",
		},
		[]string{"method", "status"},
	)

	StaticCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_static_cache_total",
			Help: "Static site cache lookups by result",
		},
		[]string{"result"},
	)

	ConfirmationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_confirmations_delivered_total",
			Help: "Confirmation messages handled by the worker by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(NewsletterOutcomes)
	prometheus.MustRegister(ApiKeyRequests)
	prometheus.MustRegister(StaticCache)
	prometheus.MustRegister(ConfirmationsDelivered)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware observes request duration for one named service.
func Middleware(service string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}
			HTTPRequestDuration.
				WithLabelValues(service, c.Request().Method, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
