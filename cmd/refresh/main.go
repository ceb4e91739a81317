package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/db"
	"github.com/pricewatch-project/backend/internal/mailer"
	"github.com/pricewatch-project/backend/internal/scraper"
	"github.com/pricewatch-project/backend/internal/services"
	"github.com/pricewatch-project/backend/internal/store"
)

// One-shot batch cycle: refresh every tracked product, then run the alert
// pass. For hosts without an external cron hitting the HTTP trigger.
func main() {
	log.Println("🚀 Starting manual price refresh...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	renderer, err := scraper.NewRenderer(cfg.Scraper)
	if err != nil {
		log.Fatalf("failed to build renderer: %v", err)
	}
	extractor := scraper.NewExtractor(cfg.Scraper, renderer)

	st := store.New(pgDB)
	notifier := mailer.New(cfg.SMTP)
	alertService := services.NewAlertService(st, notifier)
	refreshService := services.NewRefreshService(st, extractor, alertService, cfg.Refresh)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := refreshService.RefreshAll(ctx)
	if err != nil {
		log.Fatalf("refresh cycle failed: %v", err)
	}

	log.Printf("✅ Refresh completed: %d products, %d updated, %d failed",
		summary.Total, summary.Succeeded, summary.Failed)
}
