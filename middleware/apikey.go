package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

const APIKeyHeader = "X-API-KEY"

// AdminAccess guards the admin routes. A request passes with the static
// X-API-KEY header or with a bearer session carrying the admin role. An empty
// configured key disables the header path only.
func AdminAccess(key string, sessions TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got := c.GetHeader(APIKeyHeader); got != "" {
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.Fail(c, apperr.Unauthorized("invalid API key"))
				return
			}
			c.Next()
			return
		}

		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			response.Fail(c, apperr.Unauthorized("invalid or missing API key"))
			return
		}
		claims, err := sessions.Parse(raw)
		if err != nil {
			logging.From(c).Debug("admin session rejected", "err", err)
			response.Fail(c, apperr.Unauthorized("invalid or expired token"))
			return
		}
		if claims.Role != auth.RoleAdmin {
			response.Fail(c, apperr.Forbidden("admin role required"))
			return
		}

		c.Set(UserIDKey, claims.Subject)
		logging.With(c, logging.From(c).With("user_id", claims.Subject, "role", claims.Role))
		c.Next()
	}
}
