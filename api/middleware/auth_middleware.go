package middleware

import (
	"net/http"
	"strings"

	"github.com/TakenPilot/cloudflare-workers/internal/utils"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware authenticates tenant admin tokens.
type AuthMiddleware struct {
	JWT *utils.JWTManager
}

func (m AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.JWT == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "UNAUTHORIZED")
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "UNAUTHORIZED")
		}
		claims, err := m.JWT.ParseAdminToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "UNAUTHORIZED")
		}
		SetTenantContext(c, claims.Hostname)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
