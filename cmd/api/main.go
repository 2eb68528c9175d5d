package main

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmaioli/projects/docs"
	"github.com/mmaioli/projects/internal/config"
	"github.com/mmaioli/projects/internal/database"
	"github.com/mmaioli/projects/internal/database/migration"
	handlers "github.com/mmaioli/projects/internal/http/handler"
	"github.com/mmaioli/projects/internal/http/middleware"
	"github.com/mmaioli/projects/internal/otel"
	"github.com/mmaioli/projects/internal/repository/postgres"
	"github.com/mmaioli/projects/internal/service"
	"github.com/mmaioli/projects/internal/storage"
)

// @title Projects API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing is best-effort: Init degrades to a noop provider on exporter
	// failure instead of blocking startup.
	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (pooled via database/sql, traced via otelsql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize the S3-compatible object storage gateway (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	compRepo := postgres.NewComponentPostgres(db)
	compSvc := service.NewComponentService(objStore, compRepo, cfg.Upload.StagingDir)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Upload.MaxBodySizeMB * 1024 * 1024,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, compSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
