package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venturelink/venturelink/internal/middleware"
	"github.com/venturelink/venturelink/internal/presence"
)

// RegisterRoutes mounts the core routes and returns the authenticated
// group the modules hang their own routes off.
func (s *Server) RegisterRoutes() *echo.Group {
	s.E.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Credential endpoints are rate limited per IP.
	limiter := middleware.RateLimiter(5)
	s.E.POST("/auth/register", s.auth.Register, limiter)
	s.E.POST("/auth/login", s.auth.Login, limiter)
	s.E.POST("/auth/logout", s.auth.Logout)

	authed := s.E.Group("", middleware.Auth(s.users))
	authed.GET("/auth/me", s.auth.Me)
	authed.GET("/ws", s.bridge.Handler())
	presence.NewHandler(s.presence).RegisterRoutes(authed)

	return authed
}
