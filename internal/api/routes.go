/**
 * @description
 * API Route definitions.
 * Sets up the router groups, wires services to handlers, and applies the
 * per-session rate limiter.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pricewatch-project/backend/internal/api/handlers"
	"github.com/pricewatch-project/backend/internal/api/middleware"
	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/mailer"
	"github.com/pricewatch-project/backend/internal/scraper"
	"github.com/pricewatch-project/backend/internal/services"
	"github.com/pricewatch-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Rate limit budget per session. Each tracked request can trigger a browser
// extraction, so the window is tight.
const (
	rateLimitRequests = 6
	rateLimitWindow   = time.Minute
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) error {
	// 1. Initialize the extraction pipeline
	renderer, err := scraper.NewRenderer(cfg.Scraper)
	if err != nil {
		return err
	}
	extractor := scraper.NewExtractor(cfg.Scraper, renderer)

	// 2. Initialize Services
	st := store.New(db)
	notifier := mailer.New(cfg.SMTP)
	alertService := services.NewAlertService(st, notifier)
	refreshService := services.NewRefreshService(st, extractor, alertService, cfg.Refresh)

	// 3. Initialize Handlers
	trackingHandler := handlers.NewTrackingHandler(db, extractor, cfg.Server.Env == "production")
	userHandler := handlers.NewUserHandler(db)
	refreshHandler := handlers.NewRefreshHandler(refreshService, cfg.Cron.Secret)

	// 4. Define Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if rdb != nil {
		v1.Use(middleware.RateLimit(rdb, rateLimitRequests, rateLimitWindow))
	}

	v1.Post("/track", trackingHandler.TrackProduct)
	v1.Get("/tracking", trackingHandler.ListTracking)
	v1.Get("/products/:id", trackingHandler.GetProduct)
	v1.Delete("/tracking/:id", trackingHandler.DeleteTracking)
	v1.Put("/email", userHandler.SubmitEmail)

	v1.Get("/cron/refresh", refreshHandler.Refresh)

	return nil
}
