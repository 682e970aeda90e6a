package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jalh2/ulpdsrd-backend/internal/config"
	"github.com/jalh2/ulpdsrd-backend/internal/handler"
	"github.com/jalh2/ulpdsrd-backend/internal/middleware"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	RecordHandler   *handler.RecordHandler
	UserHandler     *handler.UserHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	canEdit := middleware.RequireRole(models.RoleChairman, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit("auth", cfg.LoginRateMax, cfg.LoginRateWindow))
		deps.AuthHandler.RegisterPublic(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	if deps.RecordHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.RecordHandler.Register(students, canEdit, adminOnly)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware, adminOnly)
		deps.UserHandler.Register(users)
	}

	if deps.ActivityHandler != nil {
		logs := api.Group("/logs", jwtMiddleware)
		deps.ActivityHandler.Register(logs, adminOnly)
	}
}
