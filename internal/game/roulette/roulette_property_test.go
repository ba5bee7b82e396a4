package roulette

import (
	"context"
	"testing"

	"pgregory.net/rapid"
)

// Admission never debits more than stake times the number of admitted
// wagers, and the balance always accounts exactly for what was admitted.
func TestAdmissionDebitMatchesAdmittedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		balance := rapid.Int64Range(0, 10_000).Draw(t, "balance")
		stake := rapid.Int64Range(1, 500).Draw(t, "stake")
		tokens := rapid.SliceOfN(rapid.SampledFrom([]string{
			"red", "black", "zero", "7", "17", "36", "1-12", "19-36", "junk", "99",
		}), 1, 20).Draw(t, "tokens")

		ledger := newFakeLedger(map[int64]int64{1: balance})
		m := newManager(ledger, newFakeHistory())

		wagers, err := m.PlaceBets(context.Background(), 10, 1, "alice", stake, tokens)

		parsed := ParseWagers(tokens, stake)
		switch {
		case len(parsed) == 0:
			if err != nil || wagers != nil {
				t.Fatalf("no-op admission must return (nil, nil), got (%v, %v)", wagers, err)
			}
		case balance < stake:
			if err == nil {
				t.Fatalf("admission must fail when not even one wager is affordable")
			}
			if got := ledger.balance(1); got != balance {
				t.Fatalf("rejected admission moved funds: %d -> %d", balance, got)
			}
		default:
			if err != nil {
				t.Fatalf("admission failed: %v", err)
			}
			debited := stake * int64(len(wagers))
			if got := ledger.balance(1); got != balance-debited {
				t.Fatalf("balance %d after admitting %d wagers at %d from %d",
					got, len(wagers), stake, balance)
			}
			if len(wagers) < len(parsed) && ledger.balance(1) >= stake {
				t.Fatalf("admission truncated to %d of %d yet %d still affordable",
					len(wagers), len(parsed), ledger.balance(1))
			}
		}
	})
}

// A full place-spin cycle conserves funds: final balance equals starting
// balance minus total stakes plus total payouts.
func TestSettlementConservesFundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 200).Draw(t, "stake")
		tokens := rapid.SliceOfN(rapid.SampledFrom([]string{
			"red", "black", "zero", "7", "1-18", "10-20",
		}), 1, 10).Draw(t, "tokens")
		outcome := rapid.IntRange(0, 36).Draw(t, "outcome")

		start := stake * int64(len(tokens))
		ledger := newFakeLedger(map[int64]int64{1: start})
		m := newManager(ledger, newFakeHistory())
		ctx := context.Background()

		wagers, err := m.PlaceBets(ctx, 10, 1, "alice", stake, tokens)
		if err != nil {
			t.Fatalf("admission failed: %v", err)
		}
		advanceClock(m)

		var wantPayout int64
		for _, w := range wagers {
			wantPayout += w.Payout(outcome)
		}

		res, err := m.SpinWithNumber(ctx, 10, 1, outcome)
		if err != nil {
			t.Fatalf("spin failed: %v", err)
		}
		if res.Totals[1] != wantPayout {
			t.Fatalf("credited %d, wager payouts sum to %d", res.Totals[1], wantPayout)
		}

		want := start - stake*int64(len(wagers)) + wantPayout
		if got := ledger.balance(1); got != want {
			t.Fatalf("final balance %d, want %d", got, want)
		}
	})
}
