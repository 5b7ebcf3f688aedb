package routes

import (
	"github.com/gin-gonic/gin"
	checkoutControllers "github.com/jwillz7667/dank-deals-delivery-sub001/controllers/checkout"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
)

// SetupCheckoutRoutes registers payment and identity endpoints. POST is the
// user call; PUT on the same path is the provider webhook, authenticated by
// signature instead of a session.
func SetupCheckoutRoutes(api *gin.RouterGroup, deps Dependencies) {
	user := api.Group("/checkout")
	user.Use(middleware.ValidateToken(deps.Sessions, false), middleware.RateLimit("checkout", deps.CheckoutLimiter))
	{
		user.POST("/create-payment-intent", checkoutControllers.CreatePaymentIntent(deps.Checkout))
		user.POST("/verify-identity", checkoutControllers.VerifyIdentity(deps.Checkout))
	}

	hooks := api.Group("/checkout")
	{
		hooks.PUT("/create-payment-intent",
			middleware.WebhookAuth("payments", deps.Webhooks.Payments, deps.Webhooks.Tolerance),
			checkoutControllers.PaymentWebhook(deps.Checkout),
		)
		hooks.PUT("/verify-identity",
			middleware.WebhookAuth("identity", deps.Webhooks.Identity, deps.Webhooks.Tolerance),
			checkoutControllers.IdentityWebhook(deps.Checkout),
		)
	}
}
