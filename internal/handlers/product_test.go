package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/models"
)

func TestBuildProductFromRequestRoundTrip(t *testing.T) {
	req := productCreateRequest{
		Name:         "ThinkPad X1",
		Brand:        "Lenovo",
		Category:     "Laptops",
		Quantity:     4,
		CostPrice:    900,
		SellingPrice: 1200,
		ReorderLevel: 2,
	}

	product, err := buildProductFromRequest(req)
	require.NoError(t, err)

	assert.Equal(t, "ThinkPad X1", product.Name)
	assert.Equal(t, "Lenovo", product.Brand)
	assert.Equal(t, "Laptops", product.Category)
	assert.Equal(t, 4, product.Quantity)
	assert.Equal(t, 900.0, product.CostPrice)
	assert.Equal(t, 1200.0, product.SellingPrice)
	assert.Equal(t, 2, product.ReorderLevel)
	assert.Equal(t, models.AvailabilityInStock, product.Availability)
}

func TestBuildProductQuantityFollowsSerializedUnits(t *testing.T) {
	req := productCreateRequest{
		Name:         "Server",
		SellingPrice: 5000,
		Quantity:     99, // overridden by the unit count
		BaseSpecs: []productSpecRequest{
			{SerialNumber: "SN-1"},
			{SerialNumber: "SN-2"},
		},
	}

	product, err := buildProductFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Quantity)
	assert.Equal(t, 2, product.UnassignedSpecCount())
}

func TestBuildProductRejectsDuplicateSerials(t *testing.T) {
	req := productCreateRequest{
		Name:         "Server",
		SellingPrice: 5000,
		BaseSpecs: []productSpecRequest{
			{SerialNumber: "SN-1"},
			{SerialNumber: "SN-1"},
		},
	}

	_, err := buildProductFromRequest(req)
	var dup duplicateSerialError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "SN-1", dup.Serial)
}

func TestBuildProductValidation(t *testing.T) {
	tests := []struct {
		name string
		req  productCreateRequest
	}{
		{name: "empty_name", req: productCreateRequest{Name: "  ", SellingPrice: 10}},
		{name: "zero_price", req: productCreateRequest{Name: "X", SellingPrice: 0}},
		{name: "negative_cost", req: productCreateRequest{Name: "X", SellingPrice: 10, CostPrice: -1}},
		{name: "negative_reorder", req: productCreateRequest{Name: "X", SellingPrice: 10, ReorderLevel: -1}},
		{name: "negative_quantity", req: productCreateRequest{Name: "X", SellingPrice: 10, Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildProductFromRequest(tt.req)
			assert.Error(t, err)
		})
	}
}

func TestBuildProductAtReorderLevelStartsRestocking(t *testing.T) {
	req := productCreateRequest{
		Name:         "Mouse",
		SellingPrice: 20,
		Quantity:     2,
		ReorderLevel: 2,
	}

	product, err := buildProductFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityRestocking, product.Availability)
}
