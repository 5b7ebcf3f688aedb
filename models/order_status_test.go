package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusConfirmed}:        true,
		{OrderStatusPending, OrderStatusPaymentFailed}:    true,
		{OrderStatusPending, OrderStatusCancelled}:        true,
		{OrderStatusConfirmed, OrderStatusPreparing}:      true,
		{OrderStatusConfirmed, OrderStatusCancelled}:      true,
		{OrderStatusPreparing, OrderStatusOutForDelivery}: true,
		{OrderStatusPreparing, OrderStatusCancelled}:      true,
		{OrderStatusOutForDelivery, OrderStatusDelivered}: true,
	}

	for _, from := range OrderStatuses() {
		for _, to := range OrderStatuses() {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalAndCancellable(t *testing.T) {
	terminal := []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusPaymentFailed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.Cancellable(), s)
	}

	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing} {
		assert.True(t, s.Cancellable(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	assert.False(t, OrderStatusOutForDelivery.Cancellable())
	assert.False(t, OrderStatus("shipped").IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" Out_For_Delivery ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusOutForDelivery, s)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestCartFind(t *testing.T) {
	c := Cart{Items: []CartItem{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 2}}}
	item := c.Find("B")
	require.NotNil(t, item)
	item.Quantity = 5
	assert.Equal(t, 5, c.Items[1].Quantity)
	assert.Nil(t, c.Find("C"))
}
