package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusQualityCheck, true},
		{OrderStatusQualityCheck, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusQualityCheck, OrderStatusCancelled, true},

		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusReady, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPending, "baking", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusReady))
	assert.False(t, IsTerminalOrderStatus(OrderStatusPending))
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusQualityCheck))
	assert.False(t, ValidOrderStatus("shipped"))
}

func TestOrderIsParticipant(t *testing.T) {
	mainBaker := uint(3)
	junior := uint(7)
	order := Order{UserID: 1, MainBakerID: &mainBaker, JuniorBakerID: &junior}

	assert.True(t, order.IsParticipant(1), "customer is a participant")
	assert.True(t, order.IsParticipant(3), "main baker is a participant")
	assert.True(t, order.IsParticipant(7), "junior baker is a participant")
	assert.False(t, order.IsParticipant(9))

	unassigned := Order{UserID: 1}
	assert.False(t, unassigned.IsParticipant(3))
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{PricePerItem: decimal.RequireFromString("10.50"), Quantity: 3}
	assert.True(t, decimal.RequireFromString("31.50").Equal(item.Subtotal()))
}
