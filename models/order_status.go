package models

import (
	"fmt"
	"slices"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusPaymentFailed,
}

// transitions lists every allowed move. A status with no targets is terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:      {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
	OrderStatusDelivered:      nil,
	OrderStatusCancelled:      nil,
	OrderStatusPaymentFailed:  nil,
}

func init() {
	for _, s := range orderStatuses {
		if _, ok := transitions[s]; !ok {
			panic(fmt.Sprintf("models: order status %q has no transition entry", s))
		}
	}
	if len(transitions) != len(orderStatuses) {
		panic("models: transition table lists an unknown order status")
	}
}

// OrderStatuses returns every order status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return slices.Clone(orderStatuses)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid order status %q", s)
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	return slices.Contains(transitions[s], to)
}

func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Cancellable reports whether a customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}
