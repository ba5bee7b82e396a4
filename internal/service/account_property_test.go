package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBonusRemainingNeverClaimed(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Zero(t, bonusRemaining(time.Time{}, now, 24*time.Hour))
}

func TestBonusRemainingBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 24 * time.Hour

	// Exactly at the cooldown edge the claim is available.
	assert.Zero(t, bonusRemaining(now.Add(-cooldown), now, cooldown))
	assert.Zero(t, bonusRemaining(now.Add(-25*time.Hour), now, cooldown))

	assert.Equal(t, time.Hour, bonusRemaining(now.Add(-23*time.Hour), now, cooldown))
	assert.Equal(t, cooldown, bonusRemaining(now, now, cooldown))
}

// For any claim time in the past, the remaining wait is exactly the cooldown
// minus the elapsed time, floored at zero, and a second claim right after a
// successful one is always on cooldown.
func TestBonusCooldownProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		cooldownHours := rapid.IntRange(1, 48).Draw(t, "cooldownHours")
		cooldown := time.Duration(cooldownHours) * time.Hour
		elapsed := time.Duration(rapid.Int64Range(0, int64(96*time.Hour)).Draw(t, "elapsed"))

		got := bonusRemaining(now.Add(-elapsed), now, cooldown)

		if elapsed >= cooldown {
			if got != 0 {
				t.Fatalf("elapsed %v >= cooldown %v yet remaining %v", elapsed, cooldown, got)
			}
			return
		}
		if want := cooldown - elapsed; got != want {
			t.Fatalf("remaining %v, want %v (elapsed %v, cooldown %v)", got, want, elapsed, cooldown)
		}
		// A fresh claim restarts the full cooldown.
		if after := bonusRemaining(now, now, cooldown); after != cooldown {
			t.Fatalf("fresh claim remaining %v, want %v", after, cooldown)
		}
	})
}
