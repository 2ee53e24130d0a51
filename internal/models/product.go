package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Availability values for a product.
const (
	AvailabilityInStock    = "inStock"
	AvailabilityRestocking = "restocking"
	AvailabilityInactive   = "inactive"
)

// BaseSpec is a single serialized unit embedded in a product, used when stock
// is tracked per physical unit rather than as a bare count.
type BaseSpec struct {
	SerialNumber string `bson:"serialNumber" json:"serialNumber"`
	BaseRAM      string `bson:"baseRam,omitempty" json:"baseRam,omitempty"`
	BaseStorage  string `bson:"baseStorage,omitempty" json:"baseStorage,omitempty"`
	BaseCPU      string `bson:"baseCpu,omitempty" json:"baseCpu,omitempty"`
	Assigned     bool   `bson:"assigned" json:"assigned"`
}

// VariantOption is one selectable value of a variant, with its price delta.
type VariantOption struct {
	Value string  `bson:"value" json:"value"`
	Cost  float64 `bson:"cost" json:"cost"`
}

// Variant groups the options a buyer can pick for a product (e.g. RAM size).
type Variant struct {
	Name    string          `bson:"name" json:"name"`
	Options []VariantOption `bson:"options" json:"options"`
}

// Product is the persisted inventory document. Quantity is the aggregate
// stock count; when baseSpecs are in use it must equal the number of
// unassigned entries.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Brand        string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	BaseSpecs    []BaseSpec         `bson:"baseSpecs" json:"baseSpecs"`
	Variants     []Variant          `bson:"variants,omitempty" json:"variants,omitempty"`
	CostPrice    float64            `bson:"costPrice" json:"costPrice"`
	SellingPrice float64            `bson:"sellingPrice" json:"sellingPrice"`
	ReorderLevel int                `bson:"reorderLevel" json:"reorderLevel"`
	Availability string             `bson:"availability" json:"availability"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UnassignedSpecCount reports how many serialized units are still free.
func (p Product) UnassignedSpecCount() int {
	n := 0
	for _, spec := range p.BaseSpecs {
		if !spec.Assigned {
			n++
		}
	}
	return n
}
