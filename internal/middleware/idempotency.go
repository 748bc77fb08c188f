package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// IdempotencyMiddleware deduplicates retried mutations using X-Correlation-ID.
// Offline clients replay requests on reconnect; if the same correlation ID is
// seen within the TTL the cached response is returned instead of re-applying
// the mutation.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case "POST", "PATCH", "PUT", "DELETE":
		default:
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			// No correlation ID = no idempotency check
			return c.Next()
		}

		key := fmt.Sprintf("trainsync:idempotency:%s", correlationID)
		ctx := context.Background()

		cached, err := redisClient.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := c.Response().Body()
			if len(body) > 0 {
				// Fire and forget
				go func() {
					bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					redisClient.Set(bgCtx, key, body, ttl)
				}()
			}
		}

		return nil
	}
}
