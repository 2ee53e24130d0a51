package handlers

import "backoffice/internal/models"

// Order status transition table. Invoice is a pre-sale draft; Delivered is
// terminal. Anything not listed is rejected.
var orderTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusInvoice:    {models.OrderStatusPending: true},
	models.OrderStatusPending:    {models.OrderStatusProcessing: true},
	models.OrderStatusProcessing: {models.OrderStatusShipped: true},
	models.OrderStatusShipped:    {models.OrderStatusDelivered: true},
	models.OrderStatusDelivered:  {},
}

// CanTransitionOrder reports whether an order may move from one status to
// another.
func CanTransitionOrder(from, to models.OrderStatus) bool {
	return orderTransitions[from][to]
}

// Shipment timeline is forward-only.
var shipmentTransitions = map[models.ShipmentStatus]map[models.ShipmentStatus]bool{
	models.ShipmentStatusReceived:   {models.ShipmentStatusProcessing: true, models.ShipmentStatusRiderOnWay: true},
	models.ShipmentStatusProcessing: {models.ShipmentStatusRiderOnWay: true, models.ShipmentStatusInTransit: true},
	models.ShipmentStatusRiderOnWay: {models.ShipmentStatusInTransit: true, models.ShipmentStatusDelivered: true},
	models.ShipmentStatusInTransit:  {models.ShipmentStatusDelivered: true},
	models.ShipmentStatusDelivered:  {},
}

// CanTransitionShipment reports whether a shipment may advance to the status.
func CanTransitionShipment(from, to models.ShipmentStatus) bool {
	return shipmentTransitions[from][to]
}

// parseOrderStatus maps a caller-supplied string onto the enum, rejecting
// anything outside it.
func parseOrderStatus(raw string) (models.OrderStatus, bool) {
	switch models.OrderStatus(raw) {
	case models.OrderStatusInvoice,
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered:
		return models.OrderStatus(raw), true
	}
	return "", false
}

func parseShipmentStatus(raw string) (models.ShipmentStatus, bool) {
	switch models.ShipmentStatus(raw) {
	case models.ShipmentStatusReceived,
		models.ShipmentStatusProcessing,
		models.ShipmentStatusRiderOnWay,
		models.ShipmentStatusInTransit,
		models.ShipmentStatusDelivered:
		return models.ShipmentStatus(raw), true
	}
	return "", false
}
