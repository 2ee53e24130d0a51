package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/models"
)

func specProduct() models.Product {
	return models.Product{
		BaseSpecs: []models.BaseSpec{
			{SerialNumber: "SN-001", Assigned: false},
			{SerialNumber: "SN-002", Assigned: true},
			{SerialNumber: "SN-003", Assigned: false},
		},
	}
}

func TestMatchSerials(t *testing.T) {
	matched, missing, taken := matchSerials(specProduct(), []string{"SN-001", "SN-003"})
	assert.Len(t, matched, 2)
	assert.Empty(t, missing)
	assert.Empty(t, taken)
}

func TestMatchSerialsReportsMissing(t *testing.T) {
	matched, missing, taken := matchSerials(specProduct(), []string{"SN-001", "SN-999"})
	assert.Len(t, matched, 1)
	assert.Equal(t, []string{"SN-999"}, missing)
	assert.Empty(t, taken)
}

func TestMatchSerialsReportsAlreadyAssigned(t *testing.T) {
	matched, missing, taken := matchSerials(specProduct(), []string{"SN-002"})
	assert.Empty(t, matched)
	assert.Empty(t, missing)
	assert.Equal(t, []string{"SN-002"}, taken)
}

func TestDedupSerialsTrimsAndDedups(t *testing.T) {
	out := dedupSerials([]string{" SN-001 ", "SN-001", "", "SN-002"})
	assert.Equal(t, []string{"SN-001", "SN-002"}, out)
}

func TestAvailabilityFor(t *testing.T) {
	assert.Equal(t, models.AvailabilityRestocking, availabilityFor(0, 0))
	assert.Equal(t, models.AvailabilityRestocking, availabilityFor(3, 5))
	assert.Equal(t, models.AvailabilityInStock, availabilityFor(6, 5))
}

func TestUnassignedSpecCount(t *testing.T) {
	assert.Equal(t, 2, specProduct().UnassignedSpecCount())
}
