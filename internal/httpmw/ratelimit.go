package httpmw

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limits bounds how many requests per second and per day one API key may
// make.
type Limits struct {
	PerSecond int
	PerDay    int
}

// RateLimitMiddleware enforces Limits per API key via Redis INCR+EXPIRE
// counters, mirroring internal/middleware/ratelimit.go.
func RateLimitMiddleware(rdb *redis.Client, limits Limits) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals("apiKey").(*KeyContext)
		if !ok {
			return c.Next()
		}

		ctx := context.Background()
		now := time.Now()

		keySecond := fmt.Sprintf("rl:%s:second:%d", key.KeyID, now.Unix())
		keyDay := fmt.Sprintf("rl:%s:day:%s", key.KeyID, now.Format("2006-01-02"))

		if limits.PerSecond > 0 {
			count, err := rdb.Incr(ctx, keySecond).Result()
			if err == nil {
				rdb.Expire(ctx, keySecond, 2*time.Second)
				if count > int64(limits.PerSecond) {
					c.Set("Retry-After", "1")
					return c.Status(429).JSON(fiber.Map{
						"error":      "rate_limit_exceeded",
						"limit_type": "per_second",
						"limit":      limits.PerSecond,
					})
				}
			}
		}

		if limits.PerDay > 0 {
			count, err := rdb.Incr(ctx, keyDay).Result()
			if err == nil {
				rdb.Expire(ctx, keyDay, 25*time.Hour)
				if count > int64(limits.PerDay) {
					tomorrow := now.AddDate(0, 0, 1)
					midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())
					retryAfter := int64(midnight.Sub(now).Seconds())
					c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
					return c.Status(429).JSON(fiber.Map{
						"error":      "daily_quota_exceeded",
						"limit_type": "per_day",
						"limit":      limits.PerDay,
						"used":       count,
					})
				}
				c.Set("X-RateLimit-Remaining-Day", strconv.FormatInt(int64(limits.PerDay)-count, 10))
			}
		}

		return c.Next()
	}
}
