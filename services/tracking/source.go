package tracking

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

// LocationSource produces the update for a given tick of a feed.
type LocationSource interface {
	Next(ctx context.Context, o *models.Order, tick int) (Update, error)
}

// SimulatedSource plays a fake delivery: the order is prepared at the store
// for PrepareTicks, travels for TravelTicks, then is delivered. With Orders
// set, a terminal stored status (cancelled, payment failed, delivered) ends
// the simulation early.
type SimulatedSource struct {
	Store        Location
	PrepareTicks int
	TravelTicks  int
	Orders       OrderFinder
	Now          func() time.Time
}

func NewSimulatedSource(store Location) *SimulatedSource {
	return &SimulatedSource{Store: store, PrepareTicks: 3, TravelTicks: 12, Now: time.Now}
}

// WithOrders makes every tick re-read the stored order status.
func (s *SimulatedSource) WithOrders(orders OrderFinder) *SimulatedSource {
	s.Orders = orders
	return s
}

func (s *SimulatedSource) Next(ctx context.Context, o *models.Order, tick int) (Update, error) {
	now := s.Now()
	status := o.Status
	if s.Orders != nil {
		fresh, err := s.Orders.FindByNumber(ctx, o.OrderNumber)
		if err != nil {
			return Update{}, fmt.Errorf("reload order: %w", err)
		}
		status = fresh.Status
	}

	dest := Destination(s.Store, o)
	if status.IsTerminal() {
		u := newUpdate(o.OrderNumber, status, tick, now)
		if status == models.OrderStatusDelivered {
			u.Location = &dest
		}
		return u, nil
	}

	switch {
	case tick <= s.PrepareTicks:
		u := newUpdate(o.OrderNumber, models.OrderStatusPreparing, tick, now)
		u.Location = &Location{Lat: s.Store.Lat, Lng: s.Store.Lng}
		return u, nil
	case tick < s.PrepareTicks+s.TravelTicks:
		step := tick - s.PrepareTicks
		frac := float64(step) / float64(s.TravelTicks)
		u := newUpdate(o.OrderNumber, models.OrderStatusOutForDelivery, tick, now)
		u.Location = &Location{
			Lat: s.Store.Lat + (dest.Lat-s.Store.Lat)*frac,
			Lng: s.Store.Lng + (dest.Lng-s.Store.Lng)*frac,
		}
		eta := s.TravelTicks - step
		u.ETAMinutes = &eta
		return u, nil
	default:
		u := newUpdate(o.OrderNumber, models.OrderStatusDelivered, tick, now)
		u.Location = &dest
		return u, nil
	}
}

// Destination places the delivery address at a stable point within a few
// kilometres of the store.
func Destination(store Location, o *models.Order) Location {
	h := fnv.New32a()
	a := o.DeliveryAddress
	h.Write([]byte(o.OrderNumber + "|" + a.HouseNumber + " " + a.Street + "|" + a.Zip))
	sum := h.Sum32()
	return Location{
		Lat: store.Lat + offset(sum%1000),
		Lng: store.Lng + offset((sum/1000)%1000),
	}
}

func offset(n uint32) float64 {
	return float64(n)/1000*0.1 - 0.05
}

type OrderFinder interface {
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
}

// PersistedSource reports whatever status is stored for the order. It has no
// location data.
type PersistedSource struct {
	orders OrderFinder
	now    func() time.Time
}

func NewPersistedSource(orders OrderFinder) *PersistedSource {
	return &PersistedSource{orders: orders, now: time.Now}
}

func (s *PersistedSource) Next(ctx context.Context, o *models.Order, tick int) (Update, error) {
	fresh, err := s.orders.FindByNumber(ctx, o.OrderNumber)
	if err != nil {
		return Update{}, fmt.Errorf("reload order: %w", err)
	}
	return newUpdate(fresh.OrderNumber, fresh.Status, tick, s.now()), nil
}
