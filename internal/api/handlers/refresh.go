/**
 * @description
 * Refresh trigger handler.
 * Token-authenticated endpoint a cron job pulls to run one batch cycle:
 * refresh every tracked product, then evaluate alerts.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/pricewatch-project/backend/internal/services"
)

// Refresher runs one full batch refresh cycle
type Refresher interface {
	RefreshAll(ctx context.Context) (services.RefreshSummary, error)
}

type RefreshHandler struct {
	Refresher Refresher
	Secret    string
}

func NewRefreshHandler(refresher Refresher, secret string) *RefreshHandler {
	return &RefreshHandler{Refresher: refresher, Secret: secret}
}

// Refresh runs the batch cycle
// GET /api/v1/cron/refresh?token=...
func (h *RefreshHandler) Refresh(c *fiber.Ctx) error {
	// Reject before any work begins
	token := c.Query("token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Token"})
	}

	summary, err := h.Refresher.RefreshAll(c.Context())
	if err != nil {
		logger.Error("Refresh: batch cycle failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Refresh failed"})
	}

	return c.JSON(fiber.Map{
		"status":             "completed",
		"total_products":     summary.Total,
		"successful_updates": summary.Succeeded,
		"failed_updates":     summary.Failed,
	})
}
