package mines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMultiplierTable(t *testing.T) {
	tests := []struct {
		hits int
		want float64
	}{
		{0, 1.0},
		{1, 1.19},
		{2, 1.5},
		{3, 1.92},
		{5, 3.26},
		{20, 50473.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Multiplier(tt.hits), 1e-9, "hits=%d", tt.hits)
	}
}

func TestPayoutTruncates(t *testing.T) {
	assert.Equal(t, int64(1920), Payout(1000, 3))
	assert.Equal(t, int64(504735), Payout(10, 20))
	assert.Equal(t, int64(100), Payout(100, 0))
	// 1.19 on an odd stake leaves a fractional unit behind.
	assert.Equal(t, int64(3), Payout(3, 1))
}

func TestMultiplierStrictlyIncreasingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.IntRange(0, 19).Draw(t, "hits")
		lo, hi := Multiplier(h), Multiplier(h+1)
		if hi <= lo {
			t.Fatalf("multiplier(%d)=%v not above multiplier(%d)=%v", h+1, hi, h, lo)
		}
	})
}
