package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/models"
)

func variantProduct() models.Product {
	return models.Product{
		Name: "Laptop",
		Variants: []models.Variant{
			{
				Name: "RAM",
				Options: []models.VariantOption{
					{Value: "8GB", Cost: 0},
					{Value: "16GB", Cost: 150},
				},
			},
			{
				Name: "Storage",
				Options: []models.VariantOption{
					{Value: "512GB", Cost: 0},
					{Value: "1TB", Cost: 100},
				},
			},
		},
	}
}

func TestResolveVariantSelectionsSnapshotsCosts(t *testing.T) {
	picks := []variantSelectionRequest{
		{Name: "RAM", Value: "16GB"},
		{Name: "Storage", Value: "512GB"},
	}

	selections, err := resolveVariantSelections(variantProduct(), picks)
	require.NoError(t, err)
	require.Len(t, selections, 2)
	assert.Equal(t, 150.0, selections[0].Cost)
	assert.Equal(t, 0.0, selections[1].Cost)
}

func TestResolveVariantSelectionsRejectsUnknownOption(t *testing.T) {
	picks := []variantSelectionRequest{{Name: "RAM", Value: "64GB"}}

	_, err := resolveVariantSelections(variantProduct(), picks)
	assert.Error(t, err)
}

func TestResolveVariantSelectionsEmptyPicks(t *testing.T) {
	selections, err := resolveVariantSelections(variantProduct(), nil)
	require.NoError(t, err)
	assert.Nil(t, selections)
}
