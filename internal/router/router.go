// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/eventhub/server/internal/handler"
	"github.com/eventhub/server/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the root index and the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface under /api/auth.
// Register, login, refresh and logout operate without a session; /me
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/api/auth")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterEvents registers the public event surface under /api/events.
// Listing and single-event reads are open; creation is deliberately
// unauthenticated to match the observed surface (see DESIGN.md). The
// optional extra middleware (rate limiter, response cache) wraps the
// read endpoints only.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, reads ...echo.MiddlewareFunc) {
	g := e.Group("/api/events")
	g.GET("", h.List, reads...)
	g.GET("/:id", h.GetByID, reads...)
	g.POST("", h.Create)
}

// RegisterRegistrations registers the registration workflow under
// /api/registrations. Every endpoint requires a valid access token.
func RegisterRegistrations(e *echo.Echo, h *handler.RegistrationHandler, jwtSecret string) {
	g := e.Group("/api/registrations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", h.Register)
	g.DELETE("/:eventId", h.Cancel)
	g.GET("/my-registrations", h.MyRegistrations)
	g.GET("/check/:eventId", h.Check)
}
