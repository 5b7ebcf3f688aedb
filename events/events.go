// Package events publishes order lifecycle events for downstream consumers
// (dispatch, analytics).
package events

import (
	"context"
	"errors"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        uint               `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	UserID         string             `json:"userId"`
	OrderType      models.OrderType   `json:"orderType"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// NewOrderEvent snapshots o. An empty previous status marks a creation event.
func NewOrderEvent(o *models.Order, previous models.OrderStatus, at time.Time) OrderEvent {
	typ := TypeOrderStatusChanged
	if previous == "" {
		typ = TypeOrderCreated
	}
	return OrderEvent{
		Type:           typ,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		OrderType:      o.Type,
		Status:         o.Status,
		PreviousStatus: previous,
		Total:          o.Total,
		OccurredAt:     at,
	}
}

// RoutingKey is order.<status>, so consumers can bind to single statuses.
func (e OrderEvent) RoutingKey() string {
	return "order." + string(e.Status)
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
