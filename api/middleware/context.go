package middleware

import (
	"github.com/labstack/echo/v4"
)

const contextHostnameKey = "admin_hostname"

func SetTenantContext(c echo.Context, hostname string) {
	c.Set(contextHostnameKey, hostname)
}

func HostnameFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextHostnameKey)
	hostname, ok := value.(string)
	return hostname, ok && hostname != ""
}
