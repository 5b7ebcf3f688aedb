package middleware

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

const (
	WebhookBodyKey = "webhook_body"

	maxWebhookBody = 1 << 20
)

// WebhookAuth verifies the provider signature over the raw body before any
// handler sees the payload. Failures are always 400 and never reach the
// handler. The verified body is stored under WebhookBodyKey.
func WebhookAuth(source, secret string, tolerance time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			reject(c, source, "unreadable", err)
			return
		}
		if len(body) > maxWebhookBody {
			reject(c, source, "too_large", errors.New("webhook body too large"))
			return
		}

		err = payments.VerifySignature(c.GetHeader(payments.SignatureHeader), body, secret, time.Now(), tolerance)
		if err != nil {
			reject(c, source, reason(err), err)
			return
		}

		c.Set(WebhookBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func reject(c *gin.Context, source, why string, err error) {
	metrics.WebhookRejected.WithLabelValues(source, why).Inc()
	response.Fail(c, apperr.Wrap(apperr.CodeInvalidInput, "webhook signature verification failed", err))
}

func reason(err error) string {
	switch {
	case errors.Is(err, payments.ErrMissingSignature):
		return "missing"
	case errors.Is(err, payments.ErrMalformedSignature):
		return "malformed"
	case errors.Is(err, payments.ErrStaleSignature):
		return "stale"
	default:
		return "mismatch"
	}
}
