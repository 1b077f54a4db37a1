package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Cases  *handlers.CasesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	cases := app.Group("/cases")
	cases.Post("/", cfg.Cases.CreateCase)
	cases.Get("/", cfg.Cases.ListCases)
	cases.Get("/:id", cfg.Cases.GetCase)
	cases.Patch("/:id/status", cfg.Cases.UpdateStatus)

	// JSON 404 for anything unmatched.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "NOT_FOUND",
				"message": "no endpoint found for this path",
			},
		})
	})
}
