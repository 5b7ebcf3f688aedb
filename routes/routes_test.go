package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository/memory"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/routes"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/checkout"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/review"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/tracking"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	webhookSecret = "whsec_test"
	adminKey      = "admin-key"
)

type app struct {
	engine     *gin.Engine
	token      string
	adminToken string
}

func newApp(t *testing.T) *app {
	return newAppWithFeed(t, time.Millisecond, 5)
}

func newAppWithFeed(t *testing.T, interval time.Duration, maxTicks int) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	calc := pricing.NewCalculator(pricing.Config{
		TaxRate:     decimal.RequireFromString("0.10"),
		DeliveryFee: decimal.RequireFromString("5.00"),
	})
	products := memory.NewProducts()
	profiles := profile.NewService(memory.NewProfiles())
	carts := cart.NewService(memory.NewCarts(), calc)
	orders := order.NewService(memory.NewOrders(), carts, profiles)
	sessions := auth.NewSessions(auth.SessionConfig{Secret: "routes-test-secret", Issuer: "test"})
	source := tracking.NewSimulatedSource(tracking.Location{Lat: 44.97, Lng: -93.26}).WithOrders(orders)
	feed := tracking.NewFeed(source, interval, maxTicks)
	limit := ratelimit.Policy{Name: "test", Limit: 1000, Window: time.Minute}

	r := gin.New()
	routes.SetupRoutes(r, routes.Dependencies{
		Sessions:        sessions,
		Login:           auth.NewLogin(auth.DisabledVerifier(assert.AnError), sessions, profiles),
		Carts:           carts,
		Orders:          orders,
		Checkout:        checkout.NewService(checkout.Config{MinAmount: decimal.RequireFromString("0.50")}, orders, profiles, nil),
		Tracking:        tracking.NewService(orders, feed),
		Profiles:        profiles,
		Reviews:         review.NewService(memory.NewReviews(), products),
		Catalog:         catalog.NewService(products),
		APILimiter:      ratelimit.NewMemory(limit, nil),
		CheckoutLimiter: ratelimit.NewMemory(limit, nil),
		AdminAPIKey:     adminKey,
		Webhooks:        routes.WebhookSecrets{Payments: webhookSecret, Identity: "whsec_identity", Tolerance: payments.DefaultTolerance},
	})

	tok, _, err := sessions.Issue("u1", "u1@example.com", auth.RoleUser)
	require.NoError(t, err)
	adminTok, _, err := sessions.Issue("a1", "ops@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	return &app{engine: r, token: tok, adminToken: adminTok}
}

func (a *app) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env response.Envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *app) user() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.token}
}

func data(t *testing.T, env response.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is an object: %#v", env.Data)
	return m
}

func (a *app) textOrder(t *testing.T) string {
	t.Helper()
	w, _ := a.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": "p1", "name": "Blue Dream 3.5g", "price": 25.50, "quantity": 1,
	}, a.user())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := a.do(t, http.MethodPost, "/api/orders/text", map[string]any{
		"address": map[string]any{
			"houseNumber": "100", "street": "Main St", "city": "Minneapolis", "state": "MN", "zip": "55401",
		},
		"phone": "6125550100",
	}, a.user())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data(t, env)["orderNumber"].(string)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	w, env := a.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestUserRoutesRequireSession(t *testing.T) {
	a := newApp(t)
	for _, path := range []string{"/api/cart", "/api/orders", "/api/profile", "/api/orders/ORD-1/tracking/stream"} {
		w, env := a.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		require.NotNil(t, env.Error, path)
		assert.EqualValues(t, "UNAUTHORIZED", env.Error.Code)
	}
}

func TestCartEnvelope(t *testing.T) {
	a := newApp(t)

	w, env := a.do(t, http.MethodGet, "/api/cart", nil, a.user())
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.False(t, env.Meta.Timestamp.IsZero())
	assert.Empty(t, data(t, env)["items"])

	w, env = a.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": "p1", "name": "Blue Dream 3.5g", "price": 25.50, "quantity": 1,
	}, a.user())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cartData := data(t, env)
	assert.Equal(t, 25.5, cartData["subtotal"])
	assert.Equal(t, 33.05, cartData["total"])

	w, env = a.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": "p2", "name": "Gummies", "price": 10, "quantity": 100,
	}, a.user())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = a.do(t, http.MethodPost, "/api/cart/items", []byte("{not json"), a.user())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, "INVALID_INPUT", env.Error.Code)
}

func TestPaymentWebhookSignature(t *testing.T) {
	a := newApp(t)
	number := a.textOrder(t)

	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": payments.EventPaymentSucceeded,
		"data": map[string]any{"object": map[string]any{
			"id":       "pi_1",
			"metadata": map[string]string{"order_number": number, "user_id": "u1"},
		}},
	})
	require.NoError(t, err)

	bad := []string{
		"",
		"garbage",
		payments.Sign("wrong-secret", body, time.Now()),
		payments.Sign(webhookSecret, body, time.Now().Add(-time.Hour)),
		payments.Sign(webhookSecret, append([]byte(" "), body...), time.Now()),
	}
	for _, sig := range bad {
		w, env := a.do(t, http.MethodPut, "/api/checkout/create-payment-intent", body, map[string]string{payments.SignatureHeader: sig})
		assert.Equal(t, http.StatusBadRequest, w.Code, sig)
		assert.EqualValues(t, "INVALID_INPUT", env.Error.Code)
	}

	_, env := a.do(t, http.MethodGet, "/api/orders/"+number, nil, a.user())
	assert.Equal(t, "pending", data(t, env)["status"], "rejected webhooks never mutate")

	w, env := a.do(t, http.MethodPut, "/api/checkout/create-payment-intent", body,
		map[string]string{payments.SignatureHeader: payments.Sign(webhookSecret, body, time.Now())})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", data(t, env)["status"])

	_, env = a.do(t, http.MethodGet, "/api/orders/"+number+"/tracking", nil, a.user())
	assert.Equal(t, "preparing", data(t, env)["status"])
}

func TestCancelOrderConflict(t *testing.T) {
	a := newApp(t)
	number := a.textOrder(t)

	w, env := a.do(t, http.MethodPost, "/api/orders/"+number+"/cancel", nil, a.user())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", data(t, env)["status"])

	w, env = a.do(t, http.MethodPost, "/api/orders/"+number+"/cancel", nil, a.user())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, "INVALID_ACTION", env.Error.Code)
}

func TestAdminRoutes(t *testing.T) {
	a := newApp(t)
	number := a.textOrder(t)

	w, _ := a.do(t, http.MethodGet, "/api/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := map[string]string{"X-API-KEY": adminKey}
	w, env := a.do(t, http.MethodPut, "/api/admin/orders/"+number+"/status", map[string]string{"status": "confirmed"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", data(t, env)["status"])

	w, env = a.do(t, http.MethodPut, "/api/admin/orders/"+number+"/status", map[string]string{"status": "delivered"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, "INVALID_ACTION", env.Error.Code)

	w, _ = a.do(t, http.MethodGet, "/api/admin/orders/export?startDate=2020-01-01", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestAdminRoutesAcceptAdminSession(t *testing.T) {
	a := newApp(t)
	number := a.textOrder(t)

	w, env := a.do(t, http.MethodGet, "/api/admin/orders", nil, a.user())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, "FORBIDDEN", env.Error.Code)

	admin := map[string]string{"Authorization": "Bearer " + a.adminToken}
	w, _ = a.do(t, http.MethodGet, "/api/admin/orders", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.do(t, http.MethodPut, "/api/admin/orders/"+number+"/status", map[string]string{"status": "confirmed"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", data(t, env)["status"])
}

func TestTrackingStream(t *testing.T) {
	a := newApp(t)
	number := a.textOrder(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+number+"/tracking/stream?access_token="+a.token, nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event:update")
	assert.Contains(t, body, "event:end")
}

func (a *app) dialTracking(t *testing.T, srv *httptest.Server, number string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/orders/" + number + "/tracking/ws?access_token=" + a.token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func TestTrackingWebSocketStopsOnDisconnect(t *testing.T) {
	a := newAppWithFeed(t, time.Hour, 5)
	number := a.textOrder(t)
	srv := httptest.NewServer(a.engine)
	defer srv.Close()

	conn := a.dialTracking(t, srv, number)
	var first map[string]any
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "received", first["status"])
	assert.Equal(t, number, first["orderNumber"])

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.TrackingStreams) == 1
	}, 2*time.Second, 5*time.Millisecond, "feed is running")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.TrackingStreams) == 0
	}, 2*time.Second, 5*time.Millisecond, "feed stops when the client goes away")
}

func TestTrackingWebSocketClosesAfterDelivery(t *testing.T) {
	a := newAppWithFeed(t, time.Millisecond, 50)
	number := a.textOrder(t)
	srv := httptest.NewServer(a.engine)
	defer srv.Close()

	conn := a.dialTracking(t, srv, number)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var last map[string]any
	var err error
	for {
		var u map[string]any
		if err = conn.ReadJSON(&u); err != nil {
			break
		}
		last = u
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.NotNil(t, last)
	assert.Equal(t, "delivered", last["status"])
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TrackingStreams))
}
