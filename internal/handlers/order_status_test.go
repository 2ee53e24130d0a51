package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/models"
)

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.OrderStatusInvoice, models.OrderStatusPending, true},
		{models.OrderStatusPending, models.OrderStatusProcessing, true},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},

		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusDelivered, models.OrderStatusPending, false},
		{models.OrderStatusDelivered, models.OrderStatusShipped, false},
		{models.OrderStatusShipped, models.OrderStatusProcessing, false},
		{models.OrderStatusInvoice, models.OrderStatusDelivered, false},
	}
	for _, tt := range tests {
		got := CanTransitionOrder(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestShipmentTransitionsForwardOnly(t *testing.T) {
	tests := []struct {
		from    models.ShipmentStatus
		to      models.ShipmentStatus
		allowed bool
	}{
		{models.ShipmentStatusReceived, models.ShipmentStatusProcessing, true},
		{models.ShipmentStatusProcessing, models.ShipmentStatusRiderOnWay, true},
		{models.ShipmentStatusRiderOnWay, models.ShipmentStatusInTransit, true},
		{models.ShipmentStatusInTransit, models.ShipmentStatusDelivered, true},
		{models.ShipmentStatusRiderOnWay, models.ShipmentStatusDelivered, true},

		{models.ShipmentStatusDelivered, models.ShipmentStatusInTransit, false},
		{models.ShipmentStatusInTransit, models.ShipmentStatusReceived, false},
		{models.ShipmentStatusProcessing, models.ShipmentStatusReceived, false},
		{models.ShipmentStatusReceived, models.ShipmentStatusDelivered, false},
	}
	for _, tt := range tests {
		got := CanTransitionShipment(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestParseOrderStatusRejectsUnknown(t *testing.T) {
	status, ok := parseOrderStatus("Pending")
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, status)

	_, ok = parseOrderStatus("Cancelled")
	assert.False(t, ok)

	_, ok = parseOrderStatus("pending")
	assert.False(t, ok)
}

func TestParseShipmentStatusRejectsUnknown(t *testing.T) {
	status, ok := parseShipmentStatus("InTransit")
	assert.True(t, ok)
	assert.Equal(t, models.ShipmentStatusInTransit, status)

	_, ok = parseShipmentStatus("Lost")
	assert.False(t, ok)
}
