package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

// RateLimit applies limiter per authenticated user, or per client IP before
// authentication. Store errors let the request through.
func RateLimit(policy string, limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := policy + ":"
		if uid := UserID(c); uid != "" {
			key += "user:" + uid
		} else {
			key += "ip:" + c.ClientIP()
		}

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logging.From(c).Warn("rate limiter unavailable, allowing request", "policy", policy, "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			metrics.RateLimited.WithLabelValues(policy).Inc()
			response.Fail(c, apperr.RateLimited(d.RetryAfter))
			return
		}
		c.Next()
	}
}
