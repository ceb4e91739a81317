/**
 * @description
 * Anonymous session identity helpers.
 * Users are identified by an httpOnly cookie carrying a UUID; no login flow.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 */

package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the subscriber's session UUID
const SessionCookie = "user_session"

// sessionMaxAge keeps the identity for a year
const sessionMaxAge = 365 * 24 * time.Hour

// SessionID returns the session UUID from the request, or "" when absent
func SessionID(c *fiber.Ctx) string {
	return c.Cookies(SessionCookie)
}

// SetSessionCookie attaches a session identity to the response
func SetSessionCookie(c *fiber.Ctx, sessionUUID string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sessionUUID,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
