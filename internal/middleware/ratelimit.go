package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "fintrack/internal/errors"
)

// limiterIdleTTL is how long an idle client's bucket is kept.
const limiterIdleTTL = 10 * time.Minute

// RateLimit allows each client IP perMinute requests per minute with a burst
// of the same size. Buckets live in an expiring cache.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	store := cache.New(limiterIdleTTL, 2*limiterIdleTTL)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var limiter *rate.Limiter
		if v, ok := store.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(limit, perMinute)
			if err := store.Add(ip, limiter, cache.DefaultExpiration); err != nil {
				// lost a race with another request from the same client
				if v, ok := store.Get(ip); ok {
					limiter = v.(*rate.Limiter)
				}
			}
		}
		store.SetDefault(ip, limiter)

		if !limiter.Allow() {
			c.Header("Retry-After", "60")
			abortWithAppError(c, apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
