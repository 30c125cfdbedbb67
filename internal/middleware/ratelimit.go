package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/observ"
	"github.com/lalith-99/teamsync/internal/ratelimit"
)

// RateLimit allows limit requests per window per caller. Callers are keyed
// by verified operator when there is one, otherwise by client IP.
func RateLimit(limiter ratelimit.Limiter, limit int, window time.Duration, metrics *observ.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if op := GetOperator(c); op != "" {
			key = "user:" + op
		}

		d := limiter.Allow(key, limit, window)
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining(limit)))
		if !d.WindowEnd.IsZero() {
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.WindowEnd.Unix(), 10))
		}

		if !d.Allowed {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.RateLimited(route)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
