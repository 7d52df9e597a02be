package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiterMiddleware enforces a fixed-window request counter per client
// IP. Redis failures fail open: throttling is protection, not a dependency.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())
		ctx := c.Request.Context()

		pipe := rdb.TxPipeline()
		count := pipe.Incr(ctx, key)
		ttl := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[RATE] Redis unavailable, letting request through: %v", err)
			c.Next()
			return
		}

		remaining := ttl.Val()
		if remaining < 0 {
			// First hit of the window, or a counter that lost its TTL.
			remaining = window
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("[RATE] Failed to arm window for %s, dropping counter: %v", key, err)
				rdb.Del(ctx, key)
				c.Next()
				return
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-count.Val()), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(remaining).Unix(), 10))

		if count.Val() > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"retry_in_s": int(remaining.Seconds()),
			})
			return
		}

		c.Next()
	}
}
