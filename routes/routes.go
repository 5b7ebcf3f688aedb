package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/checkout"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/review"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the HTTP layer needs. Services are built in
// main; the routes only wire handlers to paths.
type Dependencies struct {
	Sessions *auth.Sessions
	Login    *auth.Login

	Carts    *cart.Service
	Orders   *order.Service
	Checkout *checkout.Service
	Tracking *tracking.Service
	Profiles *profile.Service
	Reviews  *review.Service
	Catalog  *catalog.Service

	APILimiter      ratelimit.Limiter
	CheckoutLimiter ratelimit.Limiter

	AdminAPIKey string
	Webhooks    WebhookSecrets

	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

type WebhookSecrets struct {
	Payments  string
	Identity  string
	Tolerance time.Duration
}

// SetupRoutes is the single entry point that wires up every route group.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/healthz", health(deps.Ready))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// 1️⃣ Public auth and catalog routes (no session)
	SetupAuthRoutes(api, deps)
	SetupCatalogRoutes(api, deps)

	// 2️⃣ User routes (session JWT)
	SetupUserRoutes(api, deps)
	SetupOrderRoutes(api, deps)

	// 3️⃣ Checkout and provider webhooks
	SetupCheckoutRoutes(api, deps)

	// 4️⃣ Admin routes (API key)
	SetupAdminRoutes(api, deps)
}

func health(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				response.Fail(c, apperr.Database(err))
				return
			}
		}
		response.OK(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
