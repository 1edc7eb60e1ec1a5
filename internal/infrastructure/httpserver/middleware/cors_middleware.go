package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSMiddleware attaches the same permissive header set to every response and
// answers preflight probes on any path. It must run before routing.
type CORSMiddleware struct{}

func NewCORSMiddleware() *CORSMiddleware { return &CORSMiddleware{} }

func (m *CORSMiddleware) Handler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)
			h.Set(echo.HeaderAccessControlAllowMethods, "POST, OPTIONS")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
