// Package mines implements the single-player mines grid: one session per
// (chat, user), reveal-by-reveal survival odds and a cash-out that locks in
// the accumulated multiplier.
package mines

import "math"

const (
	// GridSize is the number of cells on the board.
	GridSize = 25
	// HazardCount is how many cells are mined, chosen without replacement.
	HazardCount = 5

	safeCells = GridSize - HazardCount
)

// Multiplier returns the payout multiplier after the given number of safe
// reveals. It follows the inverse survival odds of drawing that many safe
// cells in a row, scaled by a 5% house edge and rounded to two decimals.
// Strictly increasing over 0..20.
func Multiplier(hits int) float64 {
	if hits <= 0 {
		return 1.0
	}
	if hits > safeCells {
		hits = safeCells
	}
	m := 0.95
	for i := 0; i < hits; i++ {
		m *= float64(GridSize-i) / float64(safeCells-i)
	}
	return math.Round(m*100) / 100
}

// Payout returns the cash-out amount for a stake after the given number of
// safe reveals, truncated to whole currency units.
func Payout(stake int64, hits int) int64 {
	return int64(float64(stake) * Multiplier(hits))
}
