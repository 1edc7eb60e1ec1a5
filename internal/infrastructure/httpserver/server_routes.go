package httpserver

import (
	"github.com/labstack/echo/v4/middleware"
)

// ConfessPaths are the submission routes. The last one is where the existing
// front-end posts to.
var ConfessPaths = []string{"/confess", "/api/confess", "/.netlify/functions/confess"}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	for _, p := range ConfessPaths {
		s.echo.Any(p, s.submitConfession, s.middleware.RateLimit.Handler(), middleware.BodyLimit("16K"))
	}
}
