// Package checkout coordinates the cart, the order service and the payment
// provider. It creates payable orders and reconciles them from webhooks.
package checkout

import (
	"context"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/saga"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/shopspring/decimal"
)

type PaymentProvider interface {
	CreateCustomer(ctx context.Context, p payments.CustomerParams) (*payments.Customer, error)
	CreatePaymentIntent(ctx context.Context, p payments.PaymentIntentParams) (*payments.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id, idempotencyKey string) error
	CreateVerificationSession(ctx context.Context, p payments.VerificationParams) (*payments.VerificationSession, error)
}

type Orders interface {
	PrepareOrder(ctx context.Context, d order.Draft) (*models.Order, error)
	CreatePaidOrder(ctx context.Context, o *models.Order, paymentIntentID string) error
	Transition(ctx context.Context, number string, to models.OrderStatus) (*models.Order, error)
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	SetVerification(ctx context.Context, userID string, status models.VerificationStatus, sessionID string) (*models.UserProfile, error)
}

type Config struct {
	// MinAmount rejects charges below it.
	MinAmount         decimal.Decimal
	MinimumAge        int
	IdentityReturnURL string
}

type Input struct {
	Address      *models.Address `json:"address,omitempty"`
	Phone        string          `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Instructions string          `json:"instructions,omitempty" validate:"max=500"`
	Tip          decimal.Decimal `json:"tip"`
}

type PaymentResult struct {
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId"`
	OrderNumber     string          `json:"orderNumber"`
	OrderID         uint            `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
}

type Service struct {
	cfg      Config
	orders   Orders
	profiles Profiles
	provider PaymentProvider
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, orders Orders, profiles Profiles, provider PaymentProvider, opts ...Option) *Service {
	if cfg.MinimumAge == 0 {
		cfg.MinimumAge = 21
	}
	s := &Service{cfg: cfg, orders: orders, profiles: profiles, provider: provider, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreatePaymentIntent prices the cart, opens a payment intent for the total
// and stores the pending order. If the order cannot be stored the intent is
// cancelled before the error is returned.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID string, in Input) (*PaymentResult, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	o, err := s.orders.PrepareOrder(ctx, order.Draft{
		UserID:       userID,
		Type:         models.OrderTypeOnline,
		Address:      in.Address,
		Phone:        in.Phone,
		Instructions: in.Instructions,
		Tip:          in.Tip,
	})
	if err != nil {
		return nil, err
	}
	if o.Total.LessThan(s.cfg.MinAmount) {
		return nil, apperr.Validation(map[string]string{
			"total": "must be at least " + s.cfg.MinAmount.StringFixed(2),
		})
	}

	customer := &createCustomerStep{provider: s.provider, order: o}
	intent := &createIntentStep{provider: s.provider, order: o, customer: customer}
	persist := persistOrderStep(s.orders, o, intent)
	if err := saga.NewOrchestrator("checkout", customer, intent, persist).Run(ctx); err != nil {
		return nil, err
	}

	return &PaymentResult{
		ClientSecret:    intent.result.ClientSecret,
		PaymentIntentID: intent.result.ID,
		OrderNumber:     o.OrderNumber,
		OrderID:         o.ID,
		Amount:          o.Total,
	}, nil
}

func amountCents(o *models.Order) int64 {
	return pricing.Cents(o.Total)
}
