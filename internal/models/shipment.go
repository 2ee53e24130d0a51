package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShipmentStatus is the delivery state of a shipment. The timeline only moves
// forward; see handlers.CanTransitionShipment.
type ShipmentStatus string

const (
	ShipmentStatusReceived   ShipmentStatus = "Received"
	ShipmentStatusProcessing ShipmentStatus = "Processing"
	ShipmentStatusRiderOnWay ShipmentStatus = "RiderOnWay"
	ShipmentStatusInTransit  ShipmentStatus = "InTransit"
	ShipmentStatusDelivered  ShipmentStatus = "Delivered"
)

func (s ShipmentStatus) String() string {
	return string(s)
}

// TimelineEntry records one status change on a shipment.
type TimelineEntry struct {
	Status ShipmentStatus `bson:"status" json:"status"`
	Note   string         `bson:"note,omitempty" json:"note,omitempty"`
	At     time.Time      `bson:"at" json:"at"`
}

// Shipment is the delivery-tracking counterpart to an order, one document per
// order (unique index on orderId).
type Shipment struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID        primitive.ObjectID  `bson:"orderId" json:"orderId"`
	TrackingID     string              `bson:"trackingId" json:"trackingId"`
	DriverID       *primitive.ObjectID `bson:"driverId,omitempty" json:"driverId,omitempty"`
	DriverName     string              `bson:"driverName,omitempty" json:"driverName,omitempty"`
	DriverPhone    string              `bson:"driverPhone,omitempty" json:"driverPhone,omitempty"`
	RecipientName  string              `bson:"recipientName,omitempty" json:"recipientName,omitempty"`
	RecipientPhone string              `bson:"recipientPhone,omitempty" json:"recipientPhone,omitempty"`
	Status         ShipmentStatus      `bson:"status" json:"status"`
	Timeline       []TimelineEntry     `bson:"timeline" json:"timeline"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}
