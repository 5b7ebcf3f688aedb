// Package response writes the uniform JSON envelope used by every endpoint.
package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

type ErrorBody struct {
	Code       apperr.Code `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    any         `json:"details,omitempty"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

func meta(c *gin.Context) Meta {
	return Meta{Timestamp: time.Now().UTC(), RequestID: c.GetString(RequestIDKey)}
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data, Meta: meta(c)})
}

// Fail writes err as an error envelope and aborts the chain. Errors that are
// not *apperr.Error are logged and reported as INTERNAL_ERROR.
func Fail(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}

	l := logging.From(c)
	switch {
	case e.Status >= http.StatusInternalServerError:
		l.Error("request failed", "code", e.Code, "status", e.Status, "err", err)
	case e.Err != nil:
		l.Warn("request rejected", "code", e.Code, "status", e.Status, "err", e.Err)
	}

	if e.Code == apperr.CodeRateLimitExceeded {
		if d, ok := e.Details.(map[string]any); ok {
			if secs, ok := d["retryAfterSeconds"].(int); ok {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Status, Envelope{Success: false, Error: body(e), Meta: meta(c)})
}

// ErrorOf renders err the way Fail would, for transports that cannot use the
// envelope (event streams).
func ErrorOf(err error) *ErrorBody {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	return body(e)
}

func body(e *apperr.Error) *ErrorBody {
	return &ErrorBody{Code: e.Code, Message: e.Message, StatusCode: e.Status, Details: e.Details}
}

// BindJSON decodes the request body into dst. On failure it writes an
// INVALID_INPUT envelope and returns false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, apperr.Wrap(apperr.CodeInvalidInput, "request body is not valid JSON for this endpoint", err))
		return false
	}
	return true
}

// QueryInt reads an optional integer query parameter. A malformed value is
// recorded in fields and reads as zero.
func QueryInt(c *gin.Context, key string, fields map[string]string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fields[key] = "must be an integer"
		return 0
	}
	return n
}
