package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "local_prefix", in: "08012345678", want: "+2348012345678"},
		{name: "bare_country_code", in: "2348012345678", want: "+2348012345678"},
		{name: "already_international", in: "+2348012345678", want: "+2348012345678"},
		{name: "spaces_and_dashes", in: "0801 234-5678", want: "+2348012345678"},
		{name: "foreign_number_untouched", in: "+14155550100", want: "+14155550100"},
		{name: "short_local_untouched", in: "0801234", want: "0801234"},
		{name: "empty", in: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePhone(tt.in))
		})
	}
}
