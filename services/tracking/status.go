package tracking

import (
	"fmt"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

// Status is the public tracking vocabulary shown to customers. It is coarser
// than the persisted order status.
type Status string

const (
	StatusReceived       Status = "received"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var publicStatus = map[models.OrderStatus]Status{
	models.OrderStatusPending:        StatusReceived,
	models.OrderStatusConfirmed:      StatusPreparing,
	models.OrderStatusPreparing:      StatusPreparing,
	models.OrderStatusOutForDelivery: StatusOutForDelivery,
	models.OrderStatusDelivered:      StatusDelivered,
	models.OrderStatusCancelled:      StatusCancelled,
	models.OrderStatusPaymentFailed:  StatusCancelled,
}

var messages = map[Status]string{
	StatusReceived:       "Order received",
	StatusPreparing:      "Your order is being prepared",
	StatusOutForDelivery: "Your driver is on the way",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Order cancelled",
}

func init() {
	for _, s := range models.OrderStatuses() {
		if _, ok := publicStatus[s]; !ok {
			panic(fmt.Sprintf("tracking: order status %q has no public status", s))
		}
	}
}

// PublicStatus maps a persisted order status to the tracking vocabulary.
func PublicStatus(s models.OrderStatus) Status {
	if p, ok := publicStatus[s]; ok {
		return p
	}
	return StatusReceived
}

// Final reports whether no further updates will follow.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Update is one tracking event. Location is only set by sources that know it.
type Update struct {
	OrderNumber string             `json:"orderNumber"`
	Status      Status             `json:"status"`
	OrderStatus models.OrderStatus `json:"orderStatus"`
	Message     string             `json:"message"`
	Location    *Location          `json:"location,omitempty"`
	ETAMinutes  *int               `json:"etaMinutes,omitempty"`
	Tick        int                `json:"tick"`
	At          time.Time          `json:"at"`
}

// Snapshot derives an update from the persisted order status alone.
func Snapshot(o *models.Order, at time.Time) Update {
	return newUpdate(o.OrderNumber, o.Status, 0, at)
}

func newUpdate(number string, st models.OrderStatus, tick int, at time.Time) Update {
	public := PublicStatus(st)
	return Update{
		OrderNumber: number,
		Status:      public,
		OrderStatus: st,
		Message:     messages[public],
		Tick:        tick,
		At:          at,
	}
}
