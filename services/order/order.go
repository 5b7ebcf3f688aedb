// Package order turns carts into immutable, priced orders and moves them
// through the status lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/events"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/notify"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	numberAttempts   = 3
	sideEffectBudget = 5 * time.Second
)

type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error)
	UpdateStatusIf(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) (bool, error)
}

type Carts interface {
	Load(ctx context.Context, userID string) (*models.Cart, error)
	Totals(c *models.Cart, tip decimal.Decimal) pricing.Totals
	ClearCart(ctx context.Context, userID string) (*cart.View, error)
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Draft describes an order before it is priced. Empty delivery fields fall
// back to the user's saved profile.
type Draft struct {
	UserID       string
	Type         models.OrderType
	Address      *models.Address
	Phone        string
	Instructions string
	Notes        string
	Tip          decimal.Decimal
}

type TextOrderInput struct {
	Address      *models.Address `json:"address,omitempty"`
	Phone        string          `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Instructions string          `json:"instructions,omitempty" validate:"max=500"`
	Notes        string          `json:"notes,omitempty" validate:"max=1000"`
	Tip          decimal.Decimal `json:"tip"`
}

type ListQuery struct {
	Limit     int
	Offset    int
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

type Page struct {
	Orders  []models.Order `json:"orders"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"hasMore"`
}

type Service struct {
	repo      Repository
	carts     Carts
	profiles  Profiles
	publisher events.Publisher
	notifier  notify.Notifier
	now       func() time.Time
	number    NumberGenerator
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) { s.number = g }
}

func NewService(repo Repository, carts Carts, profiles Profiles, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		carts:     carts,
		profiles:  profiles,
		publisher: events.Nop{},
		notifier:  notify.Nop{},
		now:       time.Now,
		number:    DefaultNumber,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PrepareOrder snapshots the user's cart into an unsaved pending order.
func (s *Service) PrepareOrder(ctx context.Context, d Draft) (*models.Order, error) {
	if !pricing.ValidTip(d.Tip) {
		return nil, apperr.Validation(map[string]string{"tip": "must be zero or more with at most 2 decimal places"})
	}

	c, err := s.carts.Load(ctx, d.UserID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperr.CartEmpty()
	}

	profile, err := s.profiles.Get(ctx, d.UserID)
	if err != nil {
		return nil, err
	}

	addr := profile.Address
	if d.Address != nil {
		addr = *d.Address
	}
	if !addr.Complete() {
		return nil, apperr.Validation(map[string]string{"address": "a delivery address is required"})
	}

	now := s.now()
	totals := s.carts.Totals(c, d.Tip)
	o := &models.Order{
		OrderNumber:          s.number(now),
		UserID:               d.UserID,
		Type:                 d.Type,
		Status:               models.OrderStatusPending,
		DeliveryAddress:      addr,
		DeliveryInstructions: firstNonEmpty(d.Instructions, profile.DeliveryInstructions),
		ContactPhone:         firstNonEmpty(d.Phone, profile.Phone),
		ContactEmail:         profile.Email,
		Notes:                strings.TrimSpace(d.Notes),
		Subtotal:             totals.Subtotal,
		Tax:                  totals.Tax,
		DeliveryFee:          totals.DeliveryFee,
		Tip:                  totals.Tip,
		Total:                totals.Total,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	o.Items = make([]models.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		o.Items = append(o.Items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return o, nil
}

// CreatePaidOrder persists a prepared online order that awaits payment. The
// cart is left intact until the payment is confirmed.
func (s *Service) CreatePaidOrder(ctx context.Context, o *models.Order, paymentIntentID string) error {
	o.Type = models.OrderTypeOnline
	o.Status = models.OrderStatusPending
	o.PaymentIntentID = paymentIntentID
	if err := s.repo.Create(ctx, o); err != nil {
		return apperr.Database(err)
	}
	s.created(ctx, o)
	return nil
}

// CreateTextOrder records an order placed by text or phone. The cart is
// cleared once the order is stored and staff are notified.
func (s *Service) CreateTextOrder(ctx context.Context, userID string, in TextOrderInput) (*models.Order, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	o, err := s.PrepareOrder(ctx, Draft{
		UserID:       userID,
		Type:         models.OrderTypeText,
		Address:      in.Address,
		Phone:        strings.TrimSpace(in.Phone),
		Instructions: strings.TrimSpace(in.Instructions),
		Notes:        in.Notes,
		Tip:          in.Tip,
	})
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.Create(ctx, o)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == numberAttempts {
			return nil, apperr.Database(err)
		}
		o.OrderNumber = s.number(s.now())
	}
	s.created(ctx, o)

	log := logging.FromCtx(ctx)
	if _, err := s.carts.ClearCart(ctx, userID); err != nil {
		log.Warn("clear cart after text order", "order_number", o.OrderNumber, "err", err)
	}
	s.notify(ctx, notify.KindTextOrderReceived, o)
	return o, nil
}

// GetOrderByNumber returns the order only to its owner. Other users get the
// same not-found error as for a missing order.
func (s *Service) GetOrderByNumber(ctx context.Context, number, userID string) (*models.Order, error) {
	o, err := s.repo.FindByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && o.UserID != userID) {
		return nil, apperr.OrderNotFound(number)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return o, nil
}

// FindByNumber looks an order up without an ownership check.
func (s *Service) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := s.repo.FindByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.OrderNotFound(number)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return o, nil
}

func (s *Service) GetUserOrders(ctx context.Context, userID string, q ListQuery) (*Page, error) {
	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}
	f.UserID = userID
	return s.list(ctx, f)
}

// ListOrders lists across all users.
func (s *Service) ListOrders(ctx context.Context, q ListQuery) (*Page, error) {
	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f models.OrderFilter) (*Page, error) {
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &Page{
		Orders:  orders,
		Total:   total,
		Limit:   f.Limit,
		Offset:  f.Offset,
		HasMore: int64(f.Offset+len(orders)) < total,
	}, nil
}

func (s *Service) filter(q ListQuery) (models.OrderFilter, error) {
	fields := map[string]string{}
	f := models.OrderFilter{Limit: q.Limit, Offset: q.Offset, StartDate: q.StartDate, EndDate: q.EndDate}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		fields["offset"] = "must be zero or more"
	}
	if q.Status != "" {
		st, err := models.ParseOrderStatus(q.Status)
		if err != nil {
			fields["status"] = "unknown order status"
		}
		f.Status = st
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		fields["startDate"] = "must not be after endDate"
	}
	if len(fields) > 0 {
		return f, apperr.Validation(fields)
	}
	return f, nil
}

// CancelOrder cancels the user's order while it is still pending, confirmed
// or preparing.
func (s *Service) CancelOrder(ctx context.Context, orderID uint, userID string) (*models.Order, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && o.UserID != userID) {
		return nil, apperr.OrderNotFound(fmt.Sprint(orderID))
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	if !o.Status.Cancellable() {
		return nil, apperr.InvalidAction(fmt.Sprintf("order in status %s cannot be cancelled", o.Status))
	}
	return s.apply(ctx, o, models.OrderStatusCancelled)
}

// Transition moves an order to a new status on behalf of the system
// (webhooks, dispatch, staff). Repeating the current status is a no-op.
func (s *Service) Transition(ctx context.Context, number string, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown order status"})
	}
	o, err := s.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, o, to)
}

// apply performs a guarded status update, re-reading the order when another
// writer changed it first.
func (s *Service) apply(ctx context.Context, o *models.Order, to models.OrderStatus) (*models.Order, error) {
	for attempt := 0; attempt < 3; attempt++ {
		if o.Status == to {
			return o, nil
		}
		if !o.Status.CanTransitionTo(to) {
			return nil, apperr.InvalidAction(fmt.Sprintf("order cannot move from %s to %s", o.Status, to))
		}

		from := o.Status
		now := s.now()
		ok, err := s.repo.UpdateStatusIf(ctx, o.ID, from, to, now)
		if err != nil {
			return nil, apperr.Database(err)
		}
		if ok {
			o.Status = to
			o.UpdatedAt = now
			if to == models.OrderStatusCancelled {
				o.CancelledAt = &now
			}
			s.transitioned(ctx, o, from)
			return o, nil
		}

		if o, err = s.repo.FindByID(ctx, o.ID); err != nil {
			return nil, apperr.Database(err)
		}
	}
	return nil, apperr.InvalidAction("order status is changing concurrently, retry")
}

func (s *Service) created(ctx context.Context, o *models.Order) {
	metrics.OrdersCreated.WithLabelValues(string(o.Type)).Inc()
	s.publish(ctx, o, "")
}

func (s *Service) transitioned(ctx context.Context, o *models.Order, from models.OrderStatus) {
	metrics.OrderTransitions.WithLabelValues(string(from), string(o.Status)).Inc()
	logging.FromCtx(ctx).Info("order status changed",
		"order_number", o.OrderNumber, "from", from, "to", o.Status)
	s.publish(ctx, o, from)

	if o.Status != models.OrderStatusConfirmed {
		return
	}
	if o.Type == models.OrderTypeOnline {
		if _, err := s.carts.ClearCart(ctx, o.UserID); err != nil {
			logging.FromCtx(ctx).Warn("clear cart after payment", "order_number", o.OrderNumber, "err", err)
		}
	}
	s.notify(ctx, notify.KindOrderConfirmed, o)
}

func (s *Service) publish(ctx context.Context, o *models.Order, previous models.OrderStatus) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectBudget)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(o, previous, s.now())); err != nil {
		logging.FromCtx(ctx).Warn("publish order event", "order_number", o.OrderNumber, "err", err)
	}
}

func (s *Service) notify(ctx context.Context, kind notify.Kind, o *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectBudget)
	defer cancel()
	if err := s.notifier.Notify(ctx, kind, o); err != nil {
		logging.FromCtx(ctx).Warn("notify", "kind", kind, "order_number", o.OrderNumber, "err", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Export pages through every order matching q, for staff reports.
func (s *Service) Export(ctx context.Context, q ListQuery) ([]models.Order, error) {
	q.Limit, q.Offset = MaxPageSize, 0
	var out []models.Order
	for {
		page, err := s.ListOrders(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Orders...)
		if !page.HasMore {
			return out, nil
		}
		q.Offset += len(page.Orders)
	}
}
