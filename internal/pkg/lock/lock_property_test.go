// Property-based tests for concurrent balance safety under keyed locking.
package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafetyProperty checks that for any set of concurrent
// balance mutations on the same key, the final value matches sequential
// execution of all operations.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		key := ChatUser{
			ChatID: rapid.Int64Range(1, 1000000).Draw(t, "chatID"),
			UserID: rapid.Int64Range(1, 1000000).Draw(t, "userID"),
		}

		amounts := make([]int64, numOps)
		expected := initial
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		l := NewKeyed[ChatUser]()
		balance := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				l.Acquire(key)
				defer l.Release(key)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initial, numOps)
		}
		if l.Len() != 0 {
			t.Fatalf("expected all lock entries evicted, %d remain", l.Len())
		}
	})
}

// TestTryAcquireSingleWinnerProperty checks that for any number of concurrent
// TryAcquire calls on one key, exactly one succeeds.
func TestTryAcquireSingleWinnerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		contenders := rapid.IntRange(2, 16).Draw(t, "contenders")

		l := NewKeyed[int64]()
		var wg sync.WaitGroup
		wins := make(chan struct{}, contenders)

		wg.Add(contenders)
		for i := 0; i < contenders; i++ {
			go func() {
				defer wg.Done()
				if l.TryAcquire(key) {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for range wins {
			won++
		}
		if won != 1 {
			t.Fatalf("expected exactly one winner, got %d of %d", won, contenders)
		}

		l.Release(key)
		if l.Len() != 0 {
			t.Fatalf("expected eviction after release, %d entries remain", l.Len())
		}
	})
}
