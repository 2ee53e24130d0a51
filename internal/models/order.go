package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order. Transitions are validated
// against an explicit table; see handlers.CanTransitionOrder.
type OrderStatus string

const (
	OrderStatusInvoice    OrderStatus = "Invoice"
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

func (s OrderStatus) String() string {
	return string(s)
}

// VariantSelection is the buyer's pick for one variant, snapshotted with its
// price delta at sale time.
type VariantSelection struct {
	Name  string  `bson:"name" json:"name"`
	Value string  `bson:"value" json:"value"`
	Cost  float64 `bson:"cost" json:"cost"`
}

// OrderItem is one line of an order: a denormalized snapshot of the product
// at sale time. SoldSpecs is filled by inventory verification when serials
// are assigned to the line.
type OrderItem struct {
	ProductID         primitive.ObjectID `bson:"productId" json:"productId"`
	Name              string             `bson:"name" json:"name"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	Price             float64            `bson:"price" json:"price"`
	VariantSelections []VariantSelection `bson:"variantSelections,omitempty" json:"variantSelections,omitempty"`
	SoldSpecs         []BaseSpec         `bson:"soldSpecs,omitempty" json:"soldSpecs,omitempty"`
}

// ShippingAddress is the delivery destination captured on the order.
type ShippingAddress struct {
	Address string `bson:"address" json:"address"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Note    string `bson:"note,omitempty" json:"note,omitempty"`
}

// Order is the persisted order document.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TrackingID      string              `bson:"trackingId" json:"trackingId"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	ReferredBy      *primitive.ObjectID `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	Items           []OrderItem         `bson:"items" json:"items"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`
	Status          OrderStatus         `bson:"status" json:"status"`
	ItemsPrice      float64             `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        float64             `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   float64             `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64             `bson:"totalPrice" json:"totalPrice"`
	DeliveryPaid    bool                `bson:"deliveryPaid" json:"deliveryPaid"`
	IsPaid          bool                `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time          `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsApproved      bool                `bson:"isApproved" json:"isApproved"`
	ApprovedBy      *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ApproveNote     string              `bson:"approveNote,omitempty" json:"approveNote,omitempty"`
	IsDelivered     bool                `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	ShippedAt       *time.Time          `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
