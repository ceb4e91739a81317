/**
 * @description
 * Tracking database model.
 * Maps to the 'tracking' table in PostgreSQL.
 * A tracking row ties a user to a product and pins the price seen when tracking began.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 *
 * @notes
 * - initial_price is immutable after creation.
 * - last_alert_price is NULL until the first alert is delivered, then only
 *   ever moves down (a new alert requires a price below the last alerted one).
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tracking represents a user watching one product
type Tracking struct {
	ID             uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint             `gorm:"column:user_id;uniqueIndex:idx_tracking_user_product" json:"user_id"`
	ProductID      uint             `gorm:"column:product_id;uniqueIndex:idx_tracking_user_product" json:"product_id"`
	CreatedAt      time.Time        `json:"created_at"`
	InitialPrice   decimal.Decimal  `gorm:"column:initial_price;type:decimal(10,2);index" json:"initial_price"`
	LastAlertPrice *decimal.Decimal `gorm:"column:last_alert_price;type:decimal(10,2)" json:"last_alert_price"`

	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides the table name used by Tracking to `tracking`
func (Tracking) TableName() string {
	return "tracking"
}
