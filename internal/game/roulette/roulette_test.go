package roulette

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
)

type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	if balances == nil {
		balances = make(map[int64]int64)
	}
	return &fakeLedger{balances: balances}
}

func (f *fakeLedger) Balance(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) Debit(_ context.Context, userID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return game.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	return nil
}

func (f *fakeLedger) Credit(_ context.Context, userID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	return nil
}

func (f *fakeLedger) balance(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

type recordedSpin struct {
	chatID int64
	number int
	color  string
}

type fakeHistory struct {
	mu         sync.Mutex
	lastWagers map[int64][]model.StoredWager
	spins      []recordedSpin
	daily      map[int64]int64

	// When set, RecordSpin signals on entered and then blocks until gate
	// closes. Lets a test hold a spin mid-settlement.
	entered chan struct{}
	gate    chan struct{}
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		lastWagers: make(map[int64][]model.StoredWager),
		daily:      make(map[int64]int64),
	}
}

func (f *fakeHistory) SaveLastWagers(_ context.Context, userID int64, wagers []model.StoredWager) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWagers[userID] = wagers
	return nil
}

func (f *fakeHistory) LastWagers(_ context.Context, userID int64) ([]model.StoredWager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWagers[userID], nil
}

func (f *fakeHistory) RecordSpin(_ context.Context, chatID int64, number int, color string) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spins = append(f.spins, recordedSpin{chatID: chatID, number: number, color: color})
	return nil
}

func (f *fakeHistory) AddDailyWin(_ context.Context, userID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[userID] += amount
	return nil
}

// newManager returns a manager with a one-second betting window; tests that
// spin park the clock past the deadline with advanceClock.
func newManager(ledger *fakeLedger, history *fakeHistory) *Manager {
	return New(ledger, history, time.Second)
}

func TestPlaceBetsDebitsAndAdmits(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	m := newManager(ledger, newFakeHistory())

	wagers, err := m.PlaceBets(context.Background(), 10, 1, "alice", 100, []string{"red", "7"})
	require.NoError(t, err)
	require.Len(t, wagers, 2)
	assert.Equal(t, int64(800), ledger.balance(1))

	got, err := m.Bets(10, 1)
	require.NoError(t, err)
	assert.Equal(t, wagers, got)
}

func TestPlaceBetsPartialAdmission(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 25})
	m := newManager(ledger, newFakeHistory())

	wagers, err := m.PlaceBets(context.Background(), 10, 1, "alice", 10, []string{"red", "black", "7"})
	require.NoError(t, err)
	require.Len(t, wagers, 2, "only the affordable prefix is admitted")
	assert.Equal(t, int64(5), ledger.balance(1))
}

func TestPlaceBetsRejections(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 5})
	m := newManager(ledger, newFakeHistory())
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 0, []string{"red"})
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = m.PlaceBets(ctx, 10, 1, "alice", 10, []string{"red"})
	assert.ErrorIs(t, err, game.ErrInsufficientFunds)
	assert.Equal(t, int64(5), ledger.balance(1), "rejected admission must not move funds")

	wagers, err := m.PlaceBets(ctx, 10, 1, "alice", 10, []string{"gibberish"})
	require.NoError(t, err)
	assert.Empty(t, wagers, "all-garbage batch is a no-op")
	assert.Equal(t, time.Duration(0), m.TimeRemaining(10), "a no-op admission must not leave a round behind")
}

func TestCancelRefundsAndRemoves(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000, 2: 1000})
	m := newManager(ledger, newFakeHistory())
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red", "black"})
	require.NoError(t, err)
	_, err = m.PlaceBets(ctx, 10, 2, "bob", 50, []string{"7"})
	require.NoError(t, err)

	refund, err := m.Cancel(ctx, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), refund)
	assert.Equal(t, int64(1000), ledger.balance(1))

	_, err = m.Bets(10, 1)
	assert.ErrorIs(t, err, ErrNoBets)

	// Bob's wagers survive; the round still exists.
	got, err := m.Bets(10, 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Last participant out drops the round entirely.
	_, err = m.Cancel(ctx, 10, 2)
	require.NoError(t, err)
	_, err = m.Cancel(ctx, 10, 2)
	assert.ErrorIs(t, err, ErrNoBets)
}

func TestSpinCountdownGate(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	m := newManager(ledger, newFakeHistory())
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red"})
	require.NoError(t, err)
	assert.Equal(t, time.Second, m.TimeRemaining(10))

	_, err = m.SpinWithNumber(ctx, 10, 1, 3)
	var cerr *CountdownError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, time.Second, cerr.Remaining)

	// Adding more wagers must not push the deadline.
	halfway := base.Add(500 * time.Millisecond)
	m.now = func() time.Time { return halfway }
	_, err = m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"black"})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, m.TimeRemaining(10))

	after := base.Add(2 * time.Second)
	m.now = func() time.Time { return after }
	res, err := m.SpinWithNumber(ctx, 10, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Number)
}

func TestSpinRequiresRoundAndParticipant(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	m := newManager(ledger, newFakeHistory())
	ctx := context.Background()

	_, err := m.SpinWithNumber(ctx, 10, 1, 3)
	assert.ErrorIs(t, err, ErrNoRound)

	_, err = m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red"})
	require.NoError(t, err)
	advanceClock(m)

	_, err = m.SpinWithNumber(ctx, 10, 99, 3)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSpinSettlesExactNumber(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	history := newFakeHistory()
	m := newManager(ledger, history)
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"7"})
	require.NoError(t, err)
	advanceClock(m)

	res, err := m.SpinWithNumber(ctx, 10, 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Number)
	assert.Equal(t, ColorRed, res.Color)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, int64(3600), res.Lines[0].Payout)
	assert.Equal(t, int64(3600), res.Totals[1])
	assert.Equal(t, int64(900+3600), ledger.balance(1))
	assert.Equal(t, int64(3600), history.daily[1])
	require.Len(t, history.spins, 1)
	assert.Equal(t, recordedSpin{chatID: 10, number: 7, color: "red"}, history.spins[0])

	// Round is gone after settlement.
	_, err = m.SpinWithNumber(ctx, 10, 1, 7)
	assert.ErrorIs(t, err, ErrNoRound)
}

func TestSpinSettlesRangeWithHouseEdge(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	history := newFakeHistory()
	m := newManager(ledger, history)
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 50, []string{"1-18"})
	require.NoError(t, err)
	advanceClock(m)

	res, err := m.SpinWithNumber(ctx, 10, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(98), res.Totals[1])
	assert.Equal(t, int64(950+98), ledger.balance(1))
}

func TestSpinLoserGetsNoCredit(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	history := newFakeHistory()
	m := newManager(ledger, history)
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red"})
	require.NoError(t, err)
	advanceClock(m)

	res, err := m.SpinWithNumber(ctx, 10, 1, 0) // zero is green, red loses
	require.NoError(t, err)
	assert.Empty(t, res.Totals)
	assert.Equal(t, int64(900), ledger.balance(1))
	assert.Zero(t, history.daily[1])

	// Losing wagers are still persisted for the repeat button.
	stored, err := history.LastWagers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "RED", stored[0].Label)
}

func TestRepeatAndDouble(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	history := newFakeHistory()
	m := newManager(ledger, history)
	ctx := context.Background()

	_, err := m.Repeat(ctx, 10, 1, "alice", false)
	assert.ErrorIs(t, err, ErrNoLastWagers)

	_, err = m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red", "7"})
	require.NoError(t, err)
	advanceClock(m)
	_, err = m.SpinWithNumber(ctx, 10, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(800), ledger.balance(1))

	wagers, err := m.Repeat(ctx, 10, 1, "alice", false)
	require.NoError(t, err)
	require.Len(t, wagers, 2)
	assert.Equal(t, int64(100), wagers[0].Stake)
	assert.Equal(t, int64(600), ledger.balance(1))

	doubled, err := m.Repeat(ctx, 10, 1, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, int64(200), doubled[0].Stake)
	assert.Equal(t, int64(200), ledger.balance(1))

	// Repeat is all-or-nothing: 200 left cannot cover another doubled 400.
	_, err = m.Repeat(ctx, 10, 1, "alice", true)
	assert.ErrorIs(t, err, game.ErrInsufficientFunds)
	assert.Equal(t, int64(200), ledger.balance(1))
}

func TestSpinSingleFlight(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	history := newFakeHistory()
	history.entered = make(chan struct{}, 1)
	history.gate = make(chan struct{})
	m := newManager(ledger, history)
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red"})
	require.NoError(t, err)
	advanceClock(m)

	done := make(chan error, 1)
	go func() {
		_, err := m.SpinWithNumber(ctx, 10, 1, 5)
		done <- err
	}()
	<-history.entered // first spin is mid-settlement, flight lock held

	_, err = m.SpinWithNumber(ctx, 10, 1, 5)
	assert.ErrorIs(t, err, ErrSpinInProgress)

	// Admission and cancellation are shut out while resolving.
	_, err = m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"black"})
	assert.ErrorIs(t, err, ErrRoundResolving)
	_, err = m.Cancel(ctx, 10, 1)
	assert.ErrorIs(t, err, ErrRoundResolving)
	assert.True(t, m.Resolving(10))

	close(history.gate)
	require.NoError(t, <-done)
	assert.False(t, m.Resolving(10))
}

func TestRoundsAreIndependentPerChat(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	m := newManager(ledger, newFakeHistory())
	ctx := context.Background()

	_, err := m.PlaceBets(ctx, 10, 1, "alice", 100, []string{"red"})
	require.NoError(t, err)
	_, err = m.PlaceBets(ctx, 20, 1, "alice", 100, []string{"black"})
	require.NoError(t, err)
	advanceClock(m)

	_, err = m.SpinWithNumber(ctx, 10, 1, 0)
	require.NoError(t, err)

	// Chat 20's round is untouched.
	got, err := m.Bets(20, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BLACK", got[0].Label)
}

// advanceClock parks the manager clock far past any betting deadline.
func advanceClock(m *Manager) {
	far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return far }
}
