/**
 * @description
 * Tracking API Handlers.
 * Start/stop tracking products, list a session's tracked products, and
 * fetch product detail.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - gorm.io/gorm
 * - backend/internal/scraper: first-time product extraction
 * - backend/internal/canonical: product identity
 */

package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pricewatch-project/backend/internal/api/middleware"
	"github.com/pricewatch-project/backend/internal/canonical"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/pricewatch-project/backend/internal/models"
	"github.com/pricewatch-project/backend/internal/services"
	"gorm.io/gorm"
)

type TrackingHandler struct {
	DB        *gorm.DB
	Extractor services.Extractor
	// SecureCookies toggles the Secure flag on the session cookie (production)
	SecureCookies bool
}

func NewTrackingHandler(db *gorm.DB, extractor services.Extractor, secureCookies bool) *TrackingHandler {
	return &TrackingHandler{DB: db, Extractor: extractor, SecureCookies: secureCookies}
}

// TrackRequest defines the payload to start tracking a product
type TrackRequest struct {
	URL string `json:"url"`
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// TrackProduct starts tracking a product for the current session
// POST /api/v1/track
func (h *TrackingHandler) TrackProduct(c *fiber.Ctx) error {
	// 1. Parse Body
	var req TrackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	// 2. Verify the domain is actually an Amazon domain
	if !canonical.IsAmazonHost(req.URL) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid Domain - Only Amazon URLs are allowed.",
		})
	}

	canonicalURL, err := canonical.Canonicalize(req.URL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product URL"})
	}

	// 3. Find or create the product (first extraction happens here)
	var product models.Product
	if err := h.DB.Where("amazon_url = ?", canonicalURL).First(&product).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("TrackProduct: product lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up product"})
		}

		snapshot, exErr := h.Extractor.Extract(c.Context(), req.URL)
		if exErr != nil {
			logger.Error("TrackProduct: extraction rejected for %s: %v", req.URL, exErr)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product URL"})
		}
		if !snapshot.Success {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Failed to fetch product details. Please try again later.",
			})
		}

		product = models.Product{
			AmazonURL:    canonicalURL,
			Title:        snapshot.Title,
			CurrentPrice: snapshot.Price,
			ImageURL:     snapshot.ImageURL,
			LastChecked:  snapshot.FetchedAt,
		}
		if err := h.DB.Create(&product).Error; err != nil {
			logger.Error("TrackProduct: failed to create product: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save product"})
		}
	}

	// 4. Find or create the session user
	user, created, err := h.resolveSessionUser(c)
	if user == nil {
		return err // resolveSessionUser already wrote the response
	}
	if created {
		middleware.SetSessionCookie(c, user.UserUUID, h.SecureCookies)
	}

	// 5. Reject duplicate tracking for this (user, product) pair
	var existing models.Tracking
	if err := h.DB.Where("user_id = ? AND product_id = ?", user.ID, product.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already tracking this product."})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("TrackProduct: tracking lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up tracking"})
	}

	// 6. Create the tracking relationship, pinning the price at this moment
	tracking := models.Tracking{
		UserID:       user.ID,
		ProductID:    product.ID,
		CreatedAt:    time.Now(),
		InitialPrice: product.CurrentPrice,
	}
	if err := h.DB.Create(&tracking).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent request from the same session
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already tracking this product."})
		}
		logger.Error("TrackProduct: failed to create tracking: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start tracking"})
	}

	tracking.Product = product
	return c.Status(fiber.StatusCreated).JSON(tracking)
}

// ListTracking returns all tracked products for the current session
// GET /api/v1/tracking
func (h *TrackingHandler) ListTracking(c *fiber.Ctx) error {
	sessionUUID := middleware.SessionID(c)
	if sessionUUID == "" {
		return c.JSON([]models.Tracking{})
	}

	var user models.User
	if err := h.DB.Where("user_uuid = ?", sessionUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON([]models.Tracking{})
		}
		logger.Error("ListTracking: user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tracking"})
	}

	var trackings []models.Tracking
	if err := h.DB.Preload("Product").Where("user_id = ?", user.ID).Find(&trackings).Error; err != nil {
		logger.Error("ListTracking: failed to load trackings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tracking"})
	}

	return c.JSON(trackings)
}

// GetProduct returns detail for one product the session is tracking
// GET /api/v1/products/:id
func (h *TrackingHandler) GetProduct(c *fiber.Ctx) error {
	user, err := h.requireSessionUser(c)
	if user == nil {
		return err
	}

	productID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	var tracking models.Tracking
	if err := h.DB.Where("user_id = ? AND product_id = ?", user.ID, productID).First(&tracking).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found in your tracking list"})
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found."})
	}

	return c.JSON(product)
}

// DeleteTracking stops tracking a product for the current session.
// The product row is removed once no relationship references it anymore.
// DELETE /api/v1/tracking/:id
func (h *TrackingHandler) DeleteTracking(c *fiber.Ctx) error {
	user, err := h.requireSessionUser(c)
	if user == nil {
		return err
	}

	productID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	var tracking models.Tracking
	if err := h.DB.Where("user_id = ? AND product_id = ?", user.ID, productID).First(&tracking).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "You are not tracking this product."})
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found."})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&tracking).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Tracking{}).Where("product_id = ?", productID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Where("product_id = ?", productID).Delete(&models.PriceHistory{}).Error; err != nil {
				return err
			}
			return tx.Delete(&product).Error
		}
		return nil
	})
	if err != nil {
		logger.Error("DeleteTracking: failed to delete tracking %d: %v", tracking.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to stop tracking"})
	}

	return c.JSON(product)
}

// resolveSessionUser returns the session's user, creating one for fresh
// sessions. The bool reports whether a new identity was minted.
func (h *TrackingHandler) resolveSessionUser(c *fiber.Ctx) (*models.User, bool, error) {
	sessionUUID := middleware.SessionID(c)

	if sessionUUID == "" {
		user := models.User{
			UserUUID: uuid.NewString(),
			IsActive: true,
		}
		if err := h.DB.Create(&user).Error; err != nil {
			logger.Error("TrackProduct: failed to create user: %v", err)
			return nil, false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
		}
		return &user, true, nil
	}

	var user models.User
	if err := h.DB.Where("user_uuid = ?", sessionUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
		}
		logger.Error("TrackProduct: user lookup failed: %v", err)
		return nil, false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up user"})
	}
	return &user, false, nil
}

// requireSessionUser resolves the session's user or writes 401/404
func (h *TrackingHandler) requireSessionUser(c *fiber.Ctx) (*models.User, error) {
	sessionUUID := middleware.SessionID(c)
	if sessionUUID == "" {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authorized"})
	}

	var user models.User
	if err := h.DB.Where("user_uuid = ?", sessionUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
		}
		logger.Error("requireSessionUser: user lookup failed: %v", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up user"})
	}
	return &user, nil
}
