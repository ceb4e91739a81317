/**
 * @description
 * Redis-backed rate limiting middleware, keyed by session identity.
 * Caps how fast one subscriber can hit the API; each tracked request can
 * trigger expensive browser extractions.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/redis/go-redis/v9
 *
 * @notes
 * - Fails open: Redis problems are logged, never turned into request errors.
 * - Requests without a session cookie pass through; the cron trigger has its
 *   own token gate.
 */

package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimit limits each session to `limit` requests per `window`
func RateLimit(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		sessionUUID := SessionID(c)
		if sessionUUID == "" {
			return c.Next()
		}

		key := "ratelimiting:" + sessionUUID
		ctx := c.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Error("RateLimit: redis error: %v", err)
			return c.Next()
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				logger.Error("RateLimit: failed to set window expiry: %v", err)
			}
		}

		if count > int64(limit) {
			ttl, err := rdb.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": fmt.Sprintf("Rate limit exceeded. Try after %d seconds.", int(ttl.Seconds())),
			})
		}

		return c.Next()
	}
}
