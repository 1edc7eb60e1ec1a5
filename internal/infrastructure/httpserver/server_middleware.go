package httpserver

import (
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) setupMiddleware() {
	// Runs before routing so preflight probes succeed on any path.
	s.echo.Pre(s.middleware.CORS.Handler())

	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.middleware.Logging.RequestLogging())
}
