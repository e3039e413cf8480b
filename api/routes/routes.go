package routes

import (
	"time"

	"github.com/TakenPilot/cloudflare-workers/api/handler"
	"github.com/TakenPilot/cloudflare-workers/api/middleware"
	"github.com/TakenPilot/cloudflare-workers/internal/metrics"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo   *echo.Echo
	Health *handler.HealthHandler
}

func NewRouter(e *echo.Echo, health *handler.HealthHandler) *Router {
	if health == nil {
		health = &handler.HealthHandler{}
	}
	return &Router{Echo: e, Health: health}
}

func (r *Router) registerCommon(service string) {
	r.Echo.Use(metrics.Middleware(service))
	r.Echo.GET("/healthz", r.Health.Health)
	r.Echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

type NewsletterRoutes struct {
	Handler        *handler.NewsletterHandler
	AuthMiddleware middleware.AuthMiddleware
	RatePerSecond  float64
	RateBurst      int
}

func (r *Router) RegisterNewsletters(routes NewsletterRoutes) {
	r.registerCommon("newsletters")
	e := r.Echo

	perSecond := routes.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := routes.RateBurst
	if burst <= 0 {
		burst = 10
	}
	limiter := middleware.NewRateLimiter(rate.Limit(perSecond), burst, 5*time.Minute)
	limited := limiter.Middleware()

	h := routes.Handler
	for _, path := range []string{"/subscribe", "/signup", "/join"} {
		e.POST(path, h.Subscribe, limited)
	}
	for _, path := range []string{"/unsubscribe", "/optout", "/leave"} {
		e.POST(path, h.Unsubscribe, limited)
	}
	for _, path := range []string{"/confirm", "/verify"} {
		e.POST(path, h.ConfirmEmail, limited)
	}
	e.POST("/resend-confirmation", h.ResendConfirmation, limited)

	e.GET("/subscribers", h.ListSubscribers, routes.AuthMiddleware.RequireAdmin, middleware.RequireTenantMatch)
}

func (r *Router) RegisterApiKeys(h *handler.ApiKeyHandler, policy middleware.ApiKeyAccessPolicy) {
	r.registerCommon("api-keys")
	access := middleware.ApiKeyAccess(policy)
	r.Echo.Any("/api-keys/*", h.Key, access)
	r.Echo.Any("/*", h.NotFound, access)
}

// RegisterStaticSites routes every path of every hostname to the site handler.
func (r *Router) RegisterStaticSites(h *handler.StaticHandler) {
	r.registerCommon("static-sites")
	r.Echo.Any("/*", h.Page)
	r.Echo.Add(handler.MethodPurge, "/*", h.Page)
}
