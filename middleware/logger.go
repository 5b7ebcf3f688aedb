package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
)

const (
	RequestIDHeader = "X-Request-Id"

	reqBodyLimit  = 8 * 1024
	respBodyLimit = 8 * 1024
)

var redactedKeys = map[string]bool{
	"password":      true,
	"authorization": true,
	"token":         true,
	"idtoken":       true,
	"secret":        true,
	"clientsecret":  true,
	"birthdate":     true,
}

type bodyLogWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	if w.buf.Len() < respBodyLimit {
		remain := respBodyLimit - w.buf.Len()
		if len(b) > remain {
			w.buf.Write(b[:remain])
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// Logging assigns a request id, stores a request-scoped logger and logs one
// http_request line per request with redacted JSON bodies.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)

		l := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"remote", c.ClientIP(),
		)
		logging.With(c, l)

		var reqBody string
		if strings.Contains(c.GetHeader("Content-Type"), "application/json") && c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			c.Request.Body.Close()
			if err == nil {
				// handlers (and webhook signature checks) need the exact bytes
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
				reqBody = capped(redactJSON(raw), reqBodyLimit)
			}
		}

		blw := &bodyLogWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"dur_ms", time.Since(start).Milliseconds(),
			"resp_bytes", c.Writer.Size(),
		}
		if reqBody != "" {
			attrs = append(attrs, "req_body", reqBody)
		}
		if strings.Contains(c.Writer.Header().Get("Content-Type"), "application/json") {
			attrs = append(attrs, "resp_body", capped(redactJSON(blw.buf.Bytes()), respBodyLimit))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}

func capped(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "...truncated..."
	}
	return string(b)
}

func redactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var m any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	b, err := json.Marshal(scrub(m))
	if err != nil {
		return raw
	}
	return b
}

func scrub(x any) any {
	switch v := x.(type) {
	case map[string]any:
		for k, val := range v {
			if redactedKeys[strings.ToLower(k)] {
				v[k] = "***redacted***"
				continue
			}
			v[k] = scrub(val)
		}
		return v
	case []any:
		for i := range v {
			v[i] = scrub(v[i])
		}
		return v
	default:
		return v
	}
}
