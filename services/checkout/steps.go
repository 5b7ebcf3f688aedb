package checkout

import (
	"context"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/saga"
)

// --- createCustomerStep ---

type createCustomerStep struct {
	provider PaymentProvider
	order    *models.Order
	id       string
}

func (s *createCustomerStep) Name() string { return "create_customer" }

func (s *createCustomerStep) Execute(ctx context.Context) error {
	c, err := s.provider.CreateCustomer(ctx, payments.CustomerParams{
		Email:          s.order.ContactEmail,
		Phone:          s.order.ContactPhone,
		UserID:         s.order.UserID,
		IdempotencyKey: s.order.OrderNumber + "-customer",
	})
	if err != nil {
		return apperr.Upstream("payment provider", err)
	}
	s.id = c.ID
	return nil
}

// Compensate is a no-op: an unused customer record costs nothing.
func (s *createCustomerStep) Compensate(context.Context) error { return nil }

// --- createIntentStep ---

type createIntentStep struct {
	provider PaymentProvider
	order    *models.Order
	customer *createCustomerStep
	result   *payments.PaymentIntent
}

func (s *createIntentStep) Name() string { return "create_payment_intent" }

func (s *createIntentStep) Execute(ctx context.Context) error {
	pi, err := s.provider.CreatePaymentIntent(ctx, payments.PaymentIntentParams{
		AmountCents: amountCents(s.order),
		CustomerID:  s.customer.id,
		Description: "Order " + s.order.OrderNumber,
		Metadata: map[string]string{
			"order_number": s.order.OrderNumber,
			"user_id":      s.order.UserID,
		},
		IdempotencyKey: s.order.OrderNumber + "-intent",
	})
	if err != nil {
		return apperr.Upstream("payment provider", err)
	}
	s.result = pi
	return nil
}

func (s *createIntentStep) Compensate(ctx context.Context) error {
	err := s.provider.CancelPaymentIntent(ctx, s.result.ID, s.order.OrderNumber+"-cancel")
	result := "ok"
	if err != nil {
		result = "failed"
	}
	metrics.Compensations.WithLabelValues(s.Name(), result).Inc()
	return err
}

// --- persist order ---

// persistOrderStep is the last step, so it has nothing to compensate.
func persistOrderStep(orders Orders, o *models.Order, intent *createIntentStep) saga.Step {
	return saga.Func{
		StepName: "persist_order",
		ExecuteFn: func(ctx context.Context) error {
			return orders.CreatePaidOrder(ctx, o, intent.result.ID)
		},
	}
}
