package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/course-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/course-auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UserHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes under /api/v1.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	admission := cfg.AuthMiddleware.Handle

	api := app.Group("/api/v1")

	api.Get("/health", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)
	api.Get("/health/detailed", cfg.Health.Detailed)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", limiter, cfg.Auth.Login)
	authGroup.Post("/register", limiter, cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/verify", admission, cfg.Auth.Verify)
	authGroup.Get("/refresh", admission, cfg.Auth.Refresh)

	api.Get("/users/:id", admission, auth.RequireInstructor(), cfg.Users.GetUser)
	api.Patch("/admin/users/:id/role", admission, auth.RequireAdmin(), cfg.Users.ChangeRole)
}
