package handlers

import "backoffice/internal/models"

// lineTotal prices one order line: quantity times the unit price plus the
// cost of every selected variant option.
func lineTotal(item models.OrderItem) float64 {
	unit := item.Price
	for _, sel := range item.VariantSelections {
		unit += sel.Cost
	}
	return float64(item.Quantity) * unit
}

// computeItemsPrice sums line totals across the order.
func computeItemsPrice(items []models.OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += lineTotal(item)
	}
	return total
}

// computeTotalPrice applies tax always and shipping only when the customer
// pays for delivery.
func computeTotalPrice(itemsPrice, taxPrice, shippingPrice float64, deliveryPaid bool) float64 {
	total := itemsPrice + taxPrice
	if deliveryPaid {
		total += shippingPrice
	}
	return total
}
