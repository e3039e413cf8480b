package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireTenantMatch rejects requests whose hostname query parameter names a
// tenant other than the one the admin token was issued for.
func RequireTenantMatch(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		hostname, ok := HostnameFromContext(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "UNAUTHORIZED")
		}
		if requested := c.QueryParam("hostname"); requested != "" && requested != hostname {
			return echo.NewHTTPError(http.StatusForbidden, "FORBIDDEN")
		}
		return next(c)
	}
}
