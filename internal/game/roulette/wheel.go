// Package roulette implements the pooled roulette round: bet admission,
// cancellation, the countdown gate and single-flight settlement shared by
// every participant of a chat.
package roulette

// Color is the wheel color of an outcome.
type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorBlack Color = "black"
)

// redNumbers is the fixed 18-element red partition of the wheel; 0 is green
// and the remaining 18 numbers are black.
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// ColorOf returns the color of a wheel number.
func ColorOf(n int) Color {
	if n == 0 {
		return ColorGreen
	}
	if redNumbers[n] {
		return ColorRed
	}
	return ColorBlack
}

// Kind is the wager kind.
type Kind string

const (
	// KindColor wins when the outcome's color matches, paying 2x.
	KindColor Kind = "color"
	// KindNumber wins on the exact number, paying 36x.
	KindNumber Kind = "number"
	// KindRange wins when the outcome falls in [Low, High], paying
	// 36/span reduced by a 2% house edge.
	KindRange Kind = "range"
)

// Wager is a single admitted roulette bet. The stake has already been
// debited from the ledger by the time a Wager exists in a round.
type Wager struct {
	Kind  Kind
	Stake int64
	Color Color // KindColor only
	Value int   // KindNumber only
	Low   int   // KindRange only
	High  int   // KindRange only
	Label string
}

// Payout returns the gross winnings of the wager for an outcome, or 0 when
// it loses. Amounts are truncated to whole currency units.
func (w Wager) Payout(outcome int) int64 {
	switch w.Kind {
	case KindColor:
		if ColorOf(outcome) == w.Color {
			return w.Stake * 2
		}
	case KindNumber:
		if outcome == w.Value {
			return w.Stake * 36
		}
	case KindRange:
		if outcome >= w.Low && outcome <= w.High {
			span := w.High - w.Low + 1
			mult := 36.0 / float64(span) * 0.98
			return int64(float64(w.Stake) * mult)
		}
	}
	return 0
}
