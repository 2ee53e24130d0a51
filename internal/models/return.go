package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReturnItem snapshots one reversed order line.
type ReturnItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	SoldSpecs []BaseSpec         `bson:"soldSpecs,omitempty" json:"soldSpecs,omitempty"`
}

// Return is the immutable log written when an order is reversed. The order
// document itself is deleted, so this is the surviving record of the sale.
type Return struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    primitive.ObjectID `bson:"orderId" json:"orderId"`
	TrackingID string             `bson:"trackingId" json:"trackingId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	TotalValue float64            `bson:"totalValue" json:"totalValue"`
	Items      []ReturnItem       `bson:"items" json:"items"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
