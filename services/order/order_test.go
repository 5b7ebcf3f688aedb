package order_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/events"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/notify"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository/memory"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recorder struct {
	mu       sync.Mutex
	events   []events.OrderEvent
	notified []notify.Kind
}

func (r *recorder) Publish(_ context.Context, ev events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Notify(_ context.Context, kind notify.Kind, _ *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, kind)
	return nil
}

type fixture struct {
	orders   *order.Service
	carts    *cart.Service
	profiles *profile.Service
	repo     *memory.Orders
	rec      *recorder
	clock    time.Time
}

func newFixture(t *testing.T, opts ...order.Option) *fixture {
	t.Helper()
	f := &fixture{repo: memory.NewOrders(), rec: &recorder{}, clock: time.Date(2026, 4, 20, 16, 20, 0, 0, time.UTC)}
	calc := pricing.NewCalculator(pricing.Config{TaxRate: d("0.10"), DeliveryFee: d("5.00")})
	f.carts = cart.NewService(memory.NewCarts(), calc)
	f.profiles = profile.NewService(memory.NewProfiles())
	base := []order.Option{
		order.WithPublisher(f.rec),
		order.WithNotifier(f.rec),
		order.WithClock(func() time.Time { return f.clock }),
	}
	f.orders = order.NewService(f.repo, f.carts, f.profiles, append(base, opts...)...)
	return f
}

var homeAddress = models.Address{HouseNumber: "12", Street: "Main St", City: "Minneapolis", State: "MN", Zip: "55401"}

func (f *fixture) fillCart(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, userID, cart.ItemInput{ProductID: "A", Name: "Flower", Price: d("10.00"), Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, userID, cart.ItemInput{ProductID: "B", Name: "Gummies", Price: d("5.50"), Quantity: 1})
	require.NoError(t, err)
}

func (f *fixture) textOrder(t *testing.T, userID string) *models.Order {
	t.Helper()
	f.fillCart(t, userID)
	addr := homeAddress
	o, err := f.orders.CreateTextOrder(context.Background(), userID, order.TextOrderInput{Address: &addr, Phone: "6125550100"})
	require.NoError(t, err)
	return o
}

func TestCreateTextOrderRequiresItems(t *testing.T) {
	f := newFixture(t)
	addr := homeAddress
	_, err := f.orders.CreateTextOrder(context.Background(), "u1", order.TextOrderInput{Address: &addr})
	assert.True(t, apperr.HasCode(err, apperr.CodeCartEmpty))
}

func TestCreateTextOrderRequiresAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u1")
	_, err := f.orders.CreateTextOrder(context.Background(), "u1", order.TextOrderInput{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, e.Code)
	assert.Contains(t, e.Details, "address")
}

func TestCreateTextOrderFreezesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.textOrder(t, "u1")

	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, models.OrderTypeText, o.Type)
	assert.Regexp(t, `^ORD-[0-9A-Z]+-[0-9A-F]{6}$`, o.OrderNumber)
	require.Len(t, o.Items, 2)
	assert.True(t, d("25.50").Equal(o.Subtotal))
	assert.True(t, o.Subtotal.Add(o.Tax).Add(o.DeliveryFee).Add(o.Tip).Equal(o.Total))

	v, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Items, "text orders clear the cart")

	// re-adding the product at a new price must not change the stored order
	_, err = f.carts.AddItem(ctx, "u1", cart.ItemInput{ProductID: "A", Name: "Flower", Price: d("99.00"), Quantity: 1})
	require.NoError(t, err)
	stored, err := f.orders.GetOrderByNumber(ctx, o.OrderNumber, "u1")
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(stored.Total))
	assert.True(t, d("10.00").Equal(stored.Items[0].Price))

	require.Len(t, f.rec.events, 1)
	assert.Equal(t, events.TypeOrderCreated, f.rec.events[0].Type)
	assert.Equal(t, []notify.Kind{notify.KindTextOrderReceived}, f.rec.notified)
}

func TestCreateTextOrderUsesProfileFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := homeAddress
	_, err := f.profiles.Update(ctx, "u1", profile.UpdateInput{Address: &addr})
	require.NoError(t, err)
	_, err = f.profiles.EnsureEmail(ctx, "u1", "buyer@example.com")
	require.NoError(t, err)
	f.fillCart(t, "u1")

	o, err := f.orders.CreateTextOrder(ctx, "u1", order.TextOrderInput{Tip: d("2.00")})
	require.NoError(t, err)
	assert.Equal(t, "Main St", o.DeliveryAddress.Street)
	assert.Equal(t, "buyer@example.com", o.ContactEmail)
	assert.True(t, d("2.00").Equal(o.Tip))
}

func TestCreateTextOrderRetriesDuplicateNumber(t *testing.T) {
	calls := 0
	gen := func(time.Time) string {
		calls++
		if calls <= 2 {
			return "ORD-FIXED-000000"
		}
		return fmt.Sprintf("ORD-FIXED-%06d", calls)
	}
	f := newFixture(t, order.WithNumberGenerator(gen))

	first := f.textOrder(t, "u1")
	second := f.textOrder(t, "u2")
	assert.Equal(t, "ORD-FIXED-000000", first.OrderNumber)
	assert.Equal(t, "ORD-FIXED-000003", second.OrderNumber)
}

func TestGetOrderByNumberHidesOtherUsers(t *testing.T) {
	f := newFixture(t)
	o := f.textOrder(t, "u1")

	_, err := f.orders.GetOrderByNumber(context.Background(), o.OrderNumber, "u2")
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotFound))
	_, err = f.orders.GetOrderByNumber(context.Background(), "ORD-NOPE", "u1")
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotFound))
}

func TestCancelOrderMatrix(t *testing.T) {
	paths := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:        nil,
		models.OrderStatusConfirmed:      {models.OrderStatusConfirmed},
		models.OrderStatusPreparing:      {models.OrderStatusConfirmed, models.OrderStatusPreparing},
		models.OrderStatusOutForDelivery: {models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusOutForDelivery},
		models.OrderStatusDelivered:      {models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusOutForDelivery, models.OrderStatusDelivered},
		models.OrderStatusCancelled:      {models.OrderStatusCancelled},
		models.OrderStatusPaymentFailed:  {models.OrderStatusPaymentFailed},
	}
	for start, path := range paths {
		t.Run(string(start), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o := f.textOrder(t, "u1")
			for _, st := range path {
				_, err := f.orders.Transition(ctx, o.OrderNumber, st)
				require.NoError(t, err)
			}

			got, err := f.orders.CancelOrder(ctx, o.ID, "u1")
			if start.Cancellable() {
				require.NoError(t, err)
				assert.Equal(t, models.OrderStatusCancelled, got.Status)
				assert.NotNil(t, got.CancelledAt)
				assert.True(t, got.Status.IsTerminal())
				return
			}
			assert.True(t, apperr.HasCode(err, apperr.CodeInvalidAction), "cancel from %s: %v", start, err)
		})
	}
}

func TestCancelOrderOfAnotherUser(t *testing.T) {
	f := newFixture(t)
	o := f.textOrder(t, "u1")
	_, err := f.orders.CancelOrder(context.Background(), o.ID, "u2")
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotFound))
}

func TestTransitionRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.textOrder(t, "u1")

	_, err := f.orders.Transition(ctx, o.OrderNumber, models.OrderStatusDelivered)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidAction), "states cannot be skipped")

	_, err = f.orders.Transition(ctx, o.OrderNumber, models.OrderStatusConfirmed)
	require.NoError(t, err)
	before := len(f.rec.events)
	got, err := f.orders.Transition(ctx, o.OrderNumber, models.OrderStatusConfirmed)
	require.NoError(t, err, "repeating the current status is a no-op")
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	assert.Len(t, f.rec.events, before)

	_, err = f.orders.Transition(ctx, o.OrderNumber, models.OrderStatus("shipped"))
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestConfirmingPaidOrderClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t, "u1")
	addr := homeAddress

	o, err := f.orders.PrepareOrder(ctx, order.Draft{UserID: "u1", Type: models.OrderTypeOnline, Address: &addr})
	require.NoError(t, err)
	require.NoError(t, f.orders.CreatePaidOrder(ctx, o, "pi_123"))

	v, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v.Items, 2, "cart is kept until payment succeeds")

	got, err := f.orders.Transition(ctx, o.OrderNumber, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", got.PaymentIntentID)

	v, err = f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Contains(t, f.rec.notified, notify.KindOrderConfirmed)

	last := f.rec.events[len(f.rec.events)-1]
	assert.Equal(t, "order.confirmed", last.RoutingKey())
	assert.Equal(t, models.OrderStatusPending, last.PreviousStatus)
}

func TestGetUserOrdersPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var numbers []string
	for i := 0; i < 3; i++ {
		o := f.textOrder(t, "u1")
		numbers = append(numbers, o.OrderNumber)
		f.clock = f.clock.Add(time.Minute)
	}
	f.textOrder(t, "u2")

	page, err := f.orders.GetUserOrders(ctx, "u1", order.ListQuery{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, numbers[2], page.Orders[0].OrderNumber, "newest first")

	page, err = f.orders.GetUserOrders(ctx, "u1", order.ListQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, numbers[0], page.Orders[0].OrderNumber)

	page, err = f.orders.GetUserOrders(ctx, "u1", order.ListQuery{Limit: 500, Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, order.MaxPageSize, page.Limit)
	assert.Len(t, page.Orders, 3)

	_, err = f.orders.GetUserOrders(ctx, "u1", order.ListQuery{Status: "lost"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestExportReturnsEveryMatch(t *testing.T) {
	f := newFixture(t)
	f.textOrder(t, "u1")
	f.textOrder(t, "u2")

	all, err := f.orders.Export(context.Background(), order.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	from := f.clock.Add(time.Hour)
	all, err = f.orders.Export(context.Background(), order.ListQuery{StartDate: &from})
	require.NoError(t, err)
	assert.Empty(t, all)
}
