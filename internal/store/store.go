/**
 * @description
 * Persistence store for products, price history, and tracking relationships.
 * Thin GORM layer; each method is one transactional call, callers do not
 * manage cross-call transactions.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package store

import (
	"context"
	"time"

	"github.com/pricewatch-project/backend/internal/models"
	"github.com/pricewatch-project/backend/internal/scraper"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store wraps the database for the refresh and alert engines
type Store struct {
	db *gorm.DB
}

// New creates a Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindProductByURL looks a product up by its canonical URL.
// Returns gorm.ErrRecordNotFound when no product exists.
func (s *Store) FindProductByURL(ctx context.Context, canonicalURL string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("amazon_url = ?", canonicalURL).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

// ListProducts returns every tracked product
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProductSnapshot overwrites the product's current view with a fresh
// extraction result. Called only for successful snapshots; failed extractions
// leave the row untouched.
func (s *Store) UpdateProductSnapshot(ctx context.Context, productID uint, snap scraper.Snapshot) error {
	return s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"title":         snap.Title,
			"current_price": snap.Price,
			"image_url":     snap.ImageURL,
			"last_checked":  snap.FetchedAt,
		}).Error
}

// AppendPriceObservation adds one immutable row to the price history timeline
func (s *Store) AppendPriceObservation(ctx context.Context, productID uint, price decimal.Decimal, recordedAt time.Time) error {
	observation := models.PriceHistory{
		ProductID:  productID,
		Price:      price,
		RecordedAt: recordedAt,
	}
	return s.db.WithContext(ctx).Create(&observation).Error
}

// ListTrackings returns every tracking relationship with product and
// subscriber joined, for the alert pass.
func (s *Store) ListTrackings(ctx context.Context) ([]models.Tracking, error) {
	var trackings []models.Tracking
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("User").
		Find(&trackings).Error; err != nil {
		return nil, err
	}
	return trackings, nil
}

// UpdateLastAlertPrice records the price level the subscriber was just told
// about. Only called after a successful notification send.
func (s *Store) UpdateLastAlertPrice(ctx context.Context, trackingID uint, price decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.Tracking{}).
		Where("id = ?", trackingID).
		Update("last_alert_price", price).Error
}
