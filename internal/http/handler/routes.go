package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mmaioli/projects/internal/service"
)

// HealthCheck reports readiness by pinging the database with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(messageBody{Message: "dependency unavailable"})
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches every HTTP route to the provided Fiber app.
// Handlers stay free of business logic; all of it lives in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ComponentService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	components := app.Group("/components")
	components.Post("/", CreateComponent(svc))
	components.Get("/", ListComponents(svc))
	components.Post("/download-base64", DownloadBase64(svc))
	components.Patch("/:componentId", UpdateComponent(svc))
	components.Delete("/:componentId", DeleteComponent(svc))
	components.Get("/:componentId", GetComponent(svc))
	components.Post("/:componentId/files", UploadComponentFile(svc))
	components.Get("/:componentId/files/:fileName", DownloadComponentFile(svc))
}
