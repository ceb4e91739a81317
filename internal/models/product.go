/**
 * @description
 * Product and PriceHistory database models.
 * Map to the 'products' and 'price_history' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 *
 * @notes
 * - A product is keyed by its canonical Amazon URL so URL variants
 *   (tracking params, affiliate tags) resolve to one row.
 * - price_history is append-only: one row per successful refresh.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a tracked Amazon product and its latest snapshot
type Product struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AmazonURL    string          `gorm:"column:amazon_url;type:text;uniqueIndex;not null" json:"amazon_url"`
	Title        *string         `gorm:"type:varchar(500)" json:"title"`
	CurrentPrice decimal.Decimal `gorm:"column:current_price;type:decimal(10,2)" json:"current_price"`
	ImageURL     *string         `gorm:"column:image_url;type:text" json:"image_url"`
	LastChecked  time.Time       `gorm:"column:last_checked" json:"last_checked"`

	Tracking []Tracking     `gorm:"foreignKey:ProductID" json:"tracking,omitempty"`
	History  []PriceHistory `gorm:"foreignKey:ProductID" json:"history,omitempty"`
}

// TableName overrides the table name used by Product to `products`
func (Product) TableName() string {
	return "products"
}

// PriceHistory represents one observed price point for a product
type PriceHistory struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uint            `gorm:"column:product_id;index" json:"product_id"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(10,2);index" json:"price"`
	RecordedAt time.Time       `gorm:"column:recorded_at" json:"recorded_at"`
}

// TableName overrides the table name used by PriceHistory to `price_history`
func (PriceHistory) TableName() string {
	return "price_history"
}
