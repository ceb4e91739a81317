/**
 * @description
 * User API Handlers.
 * Attaches an email address to an anonymous session so alerts can reach it.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - gorm.io/gorm
 */

package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pricewatch-project/backend/internal/api/middleware"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/pricewatch-project/backend/internal/models"
	"gorm.io/gorm"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// EmailRequest defines the payload for attaching an email
type EmailRequest struct {
	Email string `json:"email"`
}

// SubmitEmail attaches an email address to the current session's user
// PUT /api/v1/email
func (h *UserHandler) SubmitEmail(c *fiber.Ctx) error {
	sessionUUID := middleware.SessionID(c)
	if sessionUUID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not Authorized."})
	}

	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email address"})
	}

	var user models.User
	if err := h.DB.Where("user_uuid = ?", sessionUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
		}
		logger.Error("SubmitEmail: user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up user"})
	}

	if user.Email != nil && *user.Email == email {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already using this email."})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists. Use a different email."})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("SubmitEmail: email lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to look up email"})
	}

	if err := h.DB.Model(&user).Update("email", email).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists. Use a different email."})
		}
		logger.Error("SubmitEmail: failed to update email: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save email"})
	}

	user.Email = &email
	return c.JSON(user)
}
