package checkout

import (
	"context"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
)

// WebhookResult is the acknowledgement returned to the provider.
type WebhookResult struct {
	Received    bool   `json:"received"`
	Ignored     bool   `json:"ignored,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Status      string `json:"status,omitempty"`
}

var paymentTargets = map[string]models.OrderStatus{
	payments.EventPaymentSucceeded: models.OrderStatusConfirmed,
	payments.EventPaymentFailed:    models.OrderStatusPaymentFailed,
}

var identityTargets = map[string]models.VerificationStatus{
	payments.EventIdentityVerified:      models.VerificationVerified,
	payments.EventIdentityRequiresInput: models.VerificationRequiresInput,
}

// HandlePaymentEvent applies a verified payment event to its order. Unknown
// event types and out-of-order deliveries are acknowledged and ignored.
func (s *Service) HandlePaymentEvent(ctx context.Context, ev *payments.Event) (*WebhookResult, error) {
	log := logging.FromCtx(ctx).With("event_id", ev.ID, "event_type", ev.Type)

	to, ok := paymentTargets[ev.Type]
	if !ok {
		log.Info("ignoring payment event")
		return &WebhookResult{Received: true, Ignored: true}, nil
	}
	number := ev.Data.Object.Metadata["order_number"]
	if number == "" {
		return nil, apperr.InvalidInput("payment event has no order_number metadata")
	}

	o, err := s.orders.Transition(ctx, number, to)
	if apperr.HasCode(err, apperr.CodeInvalidAction) {
		log.Warn("payment event conflicts with order status", "order_number", number, "err", err)
		return &WebhookResult{Received: true, Ignored: true, OrderNumber: number}, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("payment event applied", "order_number", number, "status", o.Status)
	return &WebhookResult{Received: true, OrderNumber: number, Status: string(o.Status)}, nil
}

// HandleIdentityEvent records the outcome of an identity verification session.
func (s *Service) HandleIdentityEvent(ctx context.Context, ev *payments.Event) (*WebhookResult, error) {
	log := logging.FromCtx(ctx).With("event_id", ev.ID, "event_type", ev.Type)

	status, ok := identityTargets[ev.Type]
	if !ok {
		log.Info("ignoring identity event")
		return &WebhookResult{Received: true, Ignored: true}, nil
	}
	userID := ev.Data.Object.Metadata["user_id"]
	if userID == "" {
		return nil, apperr.InvalidInput("identity event has no user_id metadata")
	}
	if _, err := s.profiles.SetVerification(ctx, userID, status, ev.Data.Object.ID); err != nil {
		return nil, err
	}
	log.Info("identity verification updated", "user_id", userID, "status", status)
	return &WebhookResult{Received: true, Status: string(status)}, nil
}
