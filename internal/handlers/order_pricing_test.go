package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/models"
)

func TestLineTotalIncludesVariantCosts(t *testing.T) {
	item := models.OrderItem{
		Quantity: 2,
		Price:    100,
		VariantSelections: []models.VariantSelection{
			{Name: "RAM", Value: "16GB", Cost: 25},
			{Name: "Storage", Value: "1TB", Cost: 50},
		},
	}
	assert.Equal(t, 350.0, lineTotal(item))
}

func TestLineTotalWithoutVariants(t *testing.T) {
	item := models.OrderItem{Quantity: 3, Price: 99.5}
	assert.Equal(t, 298.5, lineTotal(item))
}

func TestComputeItemsPriceSumsLines(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 1, Price: 10000},
		{Quantity: 2, Price: 500, VariantSelections: []models.VariantSelection{{Cost: 100}}},
	}
	assert.Equal(t, 11200.0, computeItemsPrice(items))
}

func TestComputeTotalPriceShippingOnlyWhenDeliveryPaid(t *testing.T) {
	tests := []struct {
		name         string
		deliveryPaid bool
		want         float64
	}{
		{name: "delivery_paid", deliveryPaid: true, want: 11500},
		{name: "delivery_not_paid", deliveryPaid: false, want: 10500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTotalPrice(10000, 500, 1000, tt.deliveryPaid)
			assert.Equal(t, tt.want, got)
		})
	}
}
