package handlers

import "backoffice/internal/models"

// matchSerials picks the specs on a product matching the requested serial
// numbers. Serials already assigned elsewhere or unknown to the product are
// returned separately so the caller can reject the request.
func matchSerials(product models.Product, serials []string) (matched []models.BaseSpec, missing []string, taken []string) {
	bySerial := make(map[string]models.BaseSpec, len(product.BaseSpecs))
	for _, spec := range product.BaseSpecs {
		bySerial[spec.SerialNumber] = spec
	}

	for _, serial := range serials {
		spec, ok := bySerial[serial]
		if !ok {
			missing = append(missing, serial)
			continue
		}
		if spec.Assigned {
			taken = append(taken, serial)
			continue
		}
		matched = append(matched, spec)
	}
	return matched, missing, taken
}

// availabilityFor derives the availability flag from the stock level.
func availabilityFor(quantity, reorderLevel int) string {
	if quantity <= reorderLevel {
		return models.AvailabilityRestocking
	}
	return models.AvailabilityInStock
}
