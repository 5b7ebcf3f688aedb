package checkoutControllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/response"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/checkout"
)

// POST /api/checkout/create-payment-intent
func CreatePaymentIntent(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input checkout.Input
		if !response.BindJSON(c, &input) {
			return
		}
		result, err := svc.CreatePaymentIntent(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, result)
	}
}

// POST /api/checkout/verify-identity
func VerifyIdentity(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input checkout.IdentityInput
		if !response.BindJSON(c, &input) {
			return
		}
		result, err := svc.VerifyIdentity(c.Request.Context(), middleware.UserID(c), input)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, result)
	}
}

// PUT /api/checkout/create-payment-intent, behind middleware.WebhookAuth.
func PaymentWebhook(svc *checkout.Service) gin.HandlerFunc {
	return webhook(svc.HandlePaymentEvent)
}

// PUT /api/checkout/verify-identity, behind middleware.WebhookAuth.
func IdentityWebhook(svc *checkout.Service) gin.HandlerFunc {
	return webhook(svc.HandleIdentityEvent)
}

type eventHandler func(ctx context.Context, ev *payments.Event) (*checkout.WebhookResult, error)

func webhook(handle eventHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := c.Get(middleware.WebhookBodyKey)
		raw, _ := body.([]byte)
		if !ok || raw == nil {
			response.Fail(c, apperr.InvalidInput("webhook body was not verified"))
			return
		}
		ev, err := payments.ParseEvent(raw)
		if err != nil {
			response.Fail(c, apperr.Wrap(apperr.CodeInvalidInput, "webhook payload is not a valid event", err))
			return
		}
		result, err := handle(c.Request.Context(), ev)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, http.StatusOK, result)
	}
}
