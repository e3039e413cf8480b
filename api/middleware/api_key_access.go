package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ApiKeyAccessPolicy decides which callers may modify API keys.
type ApiKeyAccessPolicy interface {
	AllowsOrigin(origin string) bool
	Authorizes(authorization string) bool
}

// ApiKeyAccess answers CORS preflight requests and requires an allowed Origin
// and a valid auth key for PUT, POST and DELETE. Rejections are plain text 400s.
func ApiKeyAccess(policy ApiKeyAccessPolicy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			request := c.Request()
			switch request.Method {
			case http.MethodOptions:
				header := c.Response().Header()
				header.Set("Access-Control-Allow-Origin", "same-site")
				header.Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
				header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				header.Set("Access-Control-Max-Age", "86400")
				return c.NoContent(http.StatusOK)
			case http.MethodPut, http.MethodPost, http.MethodDelete:
				if !policy.AllowsOrigin(request.Header.Get("Origin")) {
					return c.String(http.StatusBadRequest, "Invalid origin")
				}
				if !policy.Authorizes(request.Header.Get("Authorization")) {
					return c.String(http.StatusBadRequest, "Invalid auth key")
				}
			}
			return next(c)
		}
	}
}
