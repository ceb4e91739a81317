/**
 * @description
 * Batch refresh orchestrator.
 * Re-extracts every tracked product under a hard concurrency cap, persists
 * each result, and runs one alert pass after the whole batch has joined.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup: bounded fan-out
 * - backend/internal/scraper
 * - backend/internal/models
 *
 * @notes
 * - The concurrency cap is a politeness constraint toward the target site,
 *   not a hint. SetLimit enforces it before session launch.
 * - Per-product failures are isolated and counted; the batch always runs to
 *   completion and reports aggregate counts.
 */

package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/pricewatch-project/backend/internal/models"
	"github.com/pricewatch-project/backend/internal/scraper"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Extractor produces a product snapshot for a URL
type Extractor interface {
	Extract(ctx context.Context, url string) (scraper.Snapshot, error)
}

// ProductStore is the persistence surface the refresh pass needs
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProductSnapshot(ctx context.Context, productID uint, snap scraper.Snapshot) error
	AppendPriceObservation(ctx context.Context, productID uint, price decimal.Decimal, recordedAt time.Time) error
}

// AlertRunner is invoked exactly once after the refresh barrier
type AlertRunner interface {
	EvaluateAndNotify(ctx context.Context)
}

// RefreshSummary aggregates one batch cycle's outcome
type RefreshSummary struct {
	Total     int `json:"total_products"`
	Succeeded int `json:"successful_updates"`
	Failed    int `json:"failed_updates"`
}

// RefreshService runs batch price refresh cycles
type RefreshService struct {
	store     ProductStore
	extractor Extractor
	alerts    AlertRunner
	cfg       config.RefreshConfig
}

// NewRefreshService creates a RefreshService
func NewRefreshService(store ProductStore, extractor Extractor, alerts AlertRunner, cfg config.RefreshConfig) *RefreshService {
	return &RefreshService{
		store:     store,
		extractor: extractor,
		alerts:    alerts,
		cfg:       cfg,
	}
}

// RefreshAll re-extracts every product with at most cfg.Concurrency
// extractions in flight, then evaluates alerts over the full tracking set.
// The summary is only returned after every product has been attempted.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		logger.Error("RefreshService: failed to list products: %v", err)
		return RefreshSummary{}, err
	}

	logger.Info("RefreshService: starting bulk update for %d products...", len(products))

	var succeeded, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, product := range products {
		product := product
		g.Go(func() error {
			if s.refreshOne(ctx, product) {
				succeeded.Add(1)
			} else {
				failed.Add(1)
			}
			// One product's failure never aborts the batch
			return nil
		})
	}

	// Barrier: counts are only valid once every task has joined
	_ = g.Wait()

	// One alert pass per cycle, over ALL relationships, not just the ones
	// refreshed here. A price may have moved through another trigger.
	if s.alerts != nil {
		s.alerts.EvaluateAndNotify(ctx)
	}

	summary := RefreshSummary{
		Total:     len(products),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	logger.Info("RefreshService: bulk update done: %d ok, %d failed", summary.Succeeded, summary.Failed)
	return summary, nil
}

// refreshOne re-extracts a single product and persists the result.
// Returns false on any failure; the product row stays untouched then.
func (s *RefreshService) refreshOne(ctx context.Context, product models.Product) bool {
	taskCtx := ctx
	if s.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, s.cfg.TaskTimeout)
		defer cancel()
	}

	snapshot, err := s.extractor.Extract(taskCtx, product.AmazonURL)
	if err != nil {
		logger.Error("RefreshService: failed to update product %d: %v", product.ID, err)
		return false
	}
	if !snapshot.Success {
		logger.Error("RefreshService: extraction unsuccessful for product %d (%s)", product.ID, product.AmazonURL)
		return false
	}

	if err := s.store.UpdateProductSnapshot(ctx, product.ID, snapshot); err != nil {
		logger.Error("RefreshService: failed to persist snapshot for product %d: %v", product.ID, err)
		return false
	}
	if err := s.store.AppendPriceObservation(ctx, product.ID, snapshot.Price, snapshot.FetchedAt); err != nil {
		logger.Error("RefreshService: failed to append price history for product %d: %v", product.ID, err)
		return false
	}

	logger.Info("RefreshService: updated product %d to %s", product.ID, snapshot.Price)
	return true
}
