package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"selfiebooth/internal/ratelimit"
)

// RateLimit throttles by client IP with a per-route budget. Limiter failures
// (an unreachable redis, say) fail open with a log line: a broken limiter
// should not take the booth down.
func RateLimit(limiter ratelimit.Limiter, log zerolog.Logger, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP(), maxRequests, window)
		if err != nil {
			log.Error().Err(err).Str("client_ip", c.ClientIP()).Msg("rate limiter error")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
