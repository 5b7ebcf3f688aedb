package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

const UserIDKey = "user_id"

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// ValidateToken requires a bearer session token and stores the user id under
// UserIDKey. With allowQuery the token may also come from ?access_token=,
// which browsers need for EventSource and WebSocket requests.
func ValidateToken(sessions TokenParser, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" && allowQuery {
			raw = c.Query("access_token")
		}
		if raw == "" {
			response.Fail(c, apperr.Unauthorized("authorization header is missing"))
			return
		}

		claims, err := sessions.Parse(raw)
		if err != nil {
			logging.From(c).Debug("session token rejected", "err", err)
			response.Fail(c, apperr.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(UserIDKey, claims.Subject)
		logging.With(c, logging.From(c).With("user_id", claims.Subject))
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
