package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffForDoublesAndCaps(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 4, want: 16 * time.Second},
		{attempt: 5, want: 32 * time.Second},
		{attempt: 6, want: time.Minute},
		{attempt: 10, want: time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoffFor(tt.attempt), "attempt %d", tt.attempt)
	}
}
