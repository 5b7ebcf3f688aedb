package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestValidateToken(t *testing.T) {
	sessions := auth.NewSessions(auth.SessionConfig{Secret: "s3cret", Issuer: "test"})
	tok, _, err := sessions.Issue("u1", "a@example.com", auth.RoleUser)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", ValidateToken(sessions, false), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/stream", ValidateToken(sessions, true), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic " + tok, http.StatusUnauthorized},
		{"valid", "/me", "Bearer " + tok, http.StatusOK},
		{"lowercase scheme", "/me", "bearer " + tok, http.StatusOK},
		{"query not allowed", "/me?access_token=" + tok, "", http.StatusUnauthorized},
		{"query on stream", "/stream?access_token=" + tok, "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			} else {
				env := decode(t, w)
				assert.False(t, env.Success)
				assert.EqualValues(t, "UNAUTHORIZED", env.Error.Code)
			}
		})
	}
}

func TestAdminAccess(t *testing.T) {
	sessions := auth.NewSessions(auth.SessionConfig{Secret: "s3cret", Issuer: "test"})
	userTok, _, err := sessions.Issue("u1", "a@example.com", auth.RoleUser)
	require.NoError(t, err)
	adminTok, _, err := sessions.Issue("a1", "boss@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	handler := func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) }
	r := gin.New()
	r.GET("/admin", AdminAccess("k1", sessions), handler)
	keyless := gin.New()
	keyless.GET("/admin", AdminAccess("", sessions), handler)

	cases := []struct {
		name    string
		engine  *gin.Engine
		headers map[string]string
		status  int
		code    string
		body    string
	}{
		{"nothing", r, nil, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"api key", r, map[string]string{APIKeyHeader: "k1"}, http.StatusOK, "", ""},
		{"wrong api key", r, map[string]string{APIKeyHeader: "k2"}, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"admin session", r, map[string]string{"Authorization": "Bearer " + adminTok}, http.StatusOK, "", "a1"},
		{"user session", r, map[string]string{"Authorization": "Bearer " + userTok}, http.StatusForbidden, "FORBIDDEN", ""},
		{"bad session", r, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"key disabled", keyless, map[string]string{APIKeyHeader: ""}, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"key disabled rejects any key", keyless, map[string]string{APIKeyHeader: "k1"}, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"key disabled admin session", keyless, map[string]string{"Authorization": "Bearer " + adminTok}, http.StatusOK, "", "a1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			tc.engine.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, w.Body.String())
				return
			}
			assert.EqualValues(t, tc.code, decode(t, w).Error.Code)
		})
	}
}

func TestWebhookAuth(t *testing.T) {
	const secret = "whsec_test"
	body := `{"id":"evt_1","type":"payment_intent.succeeded"}`

	called := 0
	r := gin.New()
	r.PUT("/hook", WebhookAuth("payments", secret, payments.DefaultTolerance), func(c *gin.Context) {
		called++
		raw, _ := c.Get(WebhookBodyKey)
		assert.Equal(t, body, string(raw.([]byte)))
		c.Status(http.StatusOK)
	})

	send := func(sig string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/hook", strings.NewReader(body))
		if sig != "" {
			req.Header.Set(payments.SignatureHeader, sig)
		}
		r.ServeHTTP(w, req)
		return w
	}

	for name, sig := range map[string]string{
		"missing":    "",
		"malformed":  "garbage",
		"wrong key":  payments.Sign("other", []byte(body), time.Now()),
		"stale":      payments.Sign(secret, []byte(body), time.Now().Add(-time.Hour)),
		"other body": payments.Sign(secret, []byte(`{}`), time.Now()),
	} {
		w := send(sig)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.EqualValues(t, "INVALID_INPUT", decode(t, w).Error.Code, name)
	}
	assert.Zero(t, called, "rejected payloads never reach the handler")

	w := send(payments.Sign(secret, []byte(body), time.Now()))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, called)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	lim := ratelimit.NewMemory(ratelimit.Policy{Name: "api", Limit: 2, Window: time.Minute}, func() time.Time { return now })

	r := gin.New()
	r.GET("/x", RateLimit("api", lim), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	w := hit("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.EqualValues(t, "RATE_LIMIT_EXCEEDED", decode(t, w).Error.Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)

	open := gin.New()
	open.GET("/x", RateLimit("api", brokenLimiter{}), func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code, "store errors fail open")
}
