package roulette

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/lock"
)

// DefaultBettingWindow is how long after the first admitted wager the round
// stays gated against spinning.
const DefaultBettingWindow = 15 * time.Second

// Errors for the roulette round lifecycle.
var (
	ErrInvalidStake   = errors.New("stake must be positive")
	ErrRoundResolving = errors.New("round is resolving, wait for the result")
	ErrNoRound        = errors.New("no active round in this chat")
	ErrNoBets         = errors.New("no active bets")
	ErrNoLastWagers   = errors.New("no previous bets to repeat")
	ErrNotParticipant = errors.New("only a participant may spin")
	// ErrSpinInProgress reports a concurrent spin trigger. Callers treat it
	// as a silent no-op, not a user-visible error.
	ErrSpinInProgress = errors.New("spin already in progress")
)

// CountdownError reports a spin attempt before the betting window closed.
type CountdownError struct {
	Remaining time.Duration
}

func (e *CountdownError) Error() string {
	return fmt.Sprintf("betting window open for another %ds", int(e.Remaining.Seconds()))
}

// History persists round side-state: last-wager sets for the repeat/double
// buttons, the recent-outcome log and the daily winnings stats.
type History interface {
	SaveLastWagers(ctx context.Context, userID int64, wagers []model.StoredWager) error
	LastWagers(ctx context.Context, userID int64) ([]model.StoredWager, error)
	RecordSpin(ctx context.Context, chatID int64, number int, color string) error
	AddDailyWin(ctx context.Context, userID, amount int64) error
}

// entry holds one participant's wagers in arrival order.
type entry struct {
	UserID int64
	Name   string
	Wagers []Wager
}

// round is the mutable state of one chat's active round. The store owns it
// exclusively; nothing keeps a reference past the critical section it was
// obtained in.
type round struct {
	mu       sync.Mutex
	deadline time.Time // zero until the first wager is admitted
	running  bool      // true once resolution started; freezes admission and cancellation
	removed  bool      // set when the round left the store; a stale reference must not be mutated
	entries  map[int64]*entry
	order    []int64 // participant arrival order, for stable settlement output
}

func (r *round) empty() bool { return len(r.entries) == 0 }

// BetLine is one settled wager of the spin output.
type BetLine struct {
	UserID int64
	Name   string
	Wager  Wager
	Payout int64 // 0 when the wager lost
}

// Result is the structured outcome of a resolved round. Presentation is the
// caller's concern.
type Result struct {
	Number int
	Color  Color
	Lines  []BetLine
	Totals map[int64]int64 // winners only: userID -> credited amount
}

// Manager owns the per-chat round store and drives admission, cancellation
// and single-flight settlement.
type Manager struct {
	ledger  game.Ledger
	history History
	window  time.Duration

	mu     sync.Mutex
	rounds map[int64]*round

	flights *lock.Keyed[int64] // single-flight spin per chat

	// test seams
	now  func() time.Time
	draw func() int // uniform 0..36
}

// New creates a roulette manager. A non-positive window falls back to
// DefaultBettingWindow.
func New(ledger game.Ledger, history History, window time.Duration) *Manager {
	if window <= 0 {
		window = DefaultBettingWindow
	}
	return &Manager{
		ledger:  ledger,
		history: history,
		window:  window,
		rounds:  make(map[int64]*round),
		flights: lock.NewKeyed[int64](),
		now:     time.Now,
		draw:    func() int { return rand.Intn(37) },
	}
}

// lockRound returns the chat's round locked, creating it when create is set.
// It retries when it loses the race against a concurrent removal.
func (m *Manager) lockRound(chatID int64, create bool) *round {
	for {
		m.mu.Lock()
		r, ok := m.rounds[chatID]
		if !ok {
			if !create {
				m.mu.Unlock()
				return nil
			}
			r = &round{entries: make(map[int64]*entry)}
			m.rounds[chatID] = r
		}
		m.mu.Unlock()

		r.mu.Lock()
		if r.removed {
			r.mu.Unlock()
			continue
		}
		return r
	}
}

// remove drops the round from the store. Caller holds r.mu.
func (m *Manager) remove(chatID int64, r *round) {
	r.removed = true
	m.mu.Lock()
	delete(m.rounds, chatID)
	m.mu.Unlock()
}

// PlaceBets admits a batch of wagers for one user. Tokens that parse to no
// valid target are dropped; when none survive the call is a no-op returning
// an empty batch. When the balance covers only part of the batch, the batch
// is truncated to what is affordable (partial admission is deliberate); if
// not even one wager is affordable the whole call is rejected. The stake
// total is debited atomically before the round is mutated.
func (m *Manager) PlaceBets(ctx context.Context, chatID, userID int64, name string, stake int64, tokens []string) ([]Wager, error) {
	if stake <= 0 {
		return nil, ErrInvalidStake
	}

	wagers := ParseWagers(tokens, stake)
	if len(wagers) == 0 {
		return nil, nil
	}

	r := m.lockRound(chatID, true)
	defer func() {
		// A round only exists while it has wagers; drop the transient entry
		// if this admission ended up empty-handed.
		if r.empty() && !r.running {
			m.remove(chatID, r)
		}
		r.mu.Unlock()
	}()

	if r.running {
		return nil, ErrRoundResolving
	}

	balance, err := m.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance lookup failed: %w", err)
	}

	totalCost := stake * int64(len(wagers))
	if balance < totalCost {
		affordable := balance / stake
		if affordable <= 0 {
			return nil, game.ErrInsufficientFunds
		}
		wagers = wagers[:affordable]
		totalCost = stake * affordable
	}

	if err := m.ledger.Debit(ctx, userID, totalCost); err != nil {
		return nil, err
	}

	m.append(r, userID, name, wagers)
	return wagers, nil
}

// Repeat re-admits the user's persisted last wager set, doubled when double
// is set. Unlike fresh admission this is all-or-nothing: the full batch must
// be affordable.
func (m *Manager) Repeat(ctx context.Context, chatID, userID int64, name string, double bool) ([]Wager, error) {
	stored, err := m.history.LastWagers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("last wagers lookup failed: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrNoLastWagers
	}

	mult := int64(1)
	if double {
		mult = 2
	}

	wagers := make([]Wager, 0, len(stored))
	var totalCost int64
	for _, s := range stored {
		w := fromStored(s)
		w.Stake *= mult
		totalCost += w.Stake
		wagers = append(wagers, w)
	}

	r := m.lockRound(chatID, true)
	defer func() {
		if r.empty() && !r.running {
			m.remove(chatID, r)
		}
		r.mu.Unlock()
	}()

	if r.running {
		return nil, ErrRoundResolving
	}

	balance, err := m.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance lookup failed: %w", err)
	}
	if balance < totalCost {
		return nil, game.ErrInsufficientFunds
	}

	if err := m.ledger.Debit(ctx, userID, totalCost); err != nil {
		return nil, err
	}

	m.append(r, userID, name, wagers)
	return wagers, nil
}

// append records admitted wagers and starts the betting window on the
// round's first wager. Caller holds r.mu and has already debited.
func (m *Manager) append(r *round, userID int64, name string, wagers []Wager) {
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{UserID: userID, Name: name}
		r.entries[userID] = e
		r.order = append(r.order, userID)
	}
	e.Wagers = append(e.Wagers, wagers...)

	if r.deadline.IsZero() {
		r.deadline = m.now().Add(m.window)
	}
}

// Cancel refunds all of the user's wagers and removes them from the round.
// Legal only before resolution starts. The round is dropped when it becomes
// empty.
func (m *Manager) Cancel(ctx context.Context, chatID, userID int64) (int64, error) {
	r := m.lockRound(chatID, false)
	if r == nil {
		return 0, ErrNoBets
	}
	defer r.mu.Unlock()

	if r.running {
		return 0, ErrRoundResolving
	}

	e, ok := r.entries[userID]
	if !ok {
		return 0, ErrNoBets
	}

	var refund int64
	for _, w := range e.Wagers {
		refund += w.Stake
	}

	if err := m.ledger.Credit(ctx, userID, refund); err != nil {
		return 0, fmt.Errorf("refund failed: %w", err)
	}

	delete(r.entries, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.empty() {
		m.remove(chatID, r)
	}
	return refund, nil
}

// Bets returns a snapshot of the user's current wagers in the chat's round.
func (m *Manager) Bets(chatID, userID int64) ([]Wager, error) {
	r := m.lockRound(chatID, false)
	if r == nil {
		return nil, ErrNoBets
	}
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, ErrNoBets
	}
	out := make([]Wager, len(e.Wagers))
	copy(out, e.Wagers)
	return out, nil
}

// Resolving reports whether the chat's round is currently settling.
func (m *Manager) Resolving(chatID int64) bool {
	m.mu.Lock()
	r, ok := m.rounds[chatID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TimeRemaining returns how long the betting window is still open, 0 when it
// elapsed or no round exists.
func (m *Manager) TimeRemaining(chatID int64) time.Duration {
	r := m.lockRound(chatID, false)
	if r == nil {
		return 0
	}
	defer r.mu.Unlock()

	if r.deadline.IsZero() {
		return 0
	}
	remaining := r.deadline.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Spin resolves the chat's round: only a participant may trigger it, the
// betting window must have elapsed, and at most one spin runs per chat at a
// time (a concurrent trigger gets ErrSpinInProgress and nothing happens).
// Winners are credited once per user, the wager sets are persisted for
// replay, the outcome joins the recent log and the round leaves the store.
//
// A credit or history failure does not stop settlement of the remaining
// participants; it is returned joined alongside the Result and must be
// surfaced by the caller as an unrecoverable inconsistency.
func (m *Manager) Spin(ctx context.Context, chatID, userID int64) (*Result, error) {
	return m.spin(ctx, chatID, userID, m.draw)
}

// SpinWithNumber resolves the round with a forced outcome, for deterministic
// settlement in tests.
func (m *Manager) SpinWithNumber(ctx context.Context, chatID, userID int64, number int) (*Result, error) {
	return m.spin(ctx, chatID, userID, func() int { return number })
}

func (m *Manager) spin(ctx context.Context, chatID, userID int64, draw func() int) (*Result, error) {
	if !m.flights.TryAcquire(chatID) {
		return nil, ErrSpinInProgress
	}
	defer m.flights.Release(chatID)

	r := m.lockRound(chatID, false)
	if r == nil {
		return nil, ErrNoRound
	}

	if r.empty() {
		r.mu.Unlock()
		return nil, ErrNoRound
	}
	if _, ok := r.entries[userID]; !ok {
		r.mu.Unlock()
		return nil, ErrNotParticipant
	}
	if remaining := r.deadline.Sub(m.now()); remaining > 0 {
		r.mu.Unlock()
		return nil, &CountdownError{Remaining: remaining}
	}

	// From here on the wager map is frozen: admission and cancellation both
	// reject while running is set, so settlement may read the entries
	// without holding the round lock across ledger calls.
	r.running = true
	r.mu.Unlock()

	outcome := draw()
	res := &Result{
		Number: outcome,
		Color:  ColorOf(outcome),
		Totals: make(map[int64]int64),
	}

	var settleErr error
	for _, id := range r.order {
		e := r.entries[id]

		var total int64
		for _, w := range e.Wagers {
			payout := w.Payout(outcome)
			total += payout
			res.Lines = append(res.Lines, BetLine{UserID: id, Name: e.Name, Wager: w, Payout: payout})
		}

		if err := m.history.SaveLastWagers(ctx, id, toStored(e.Wagers)); err != nil {
			settleErr = errors.Join(settleErr, fmt.Errorf("save last wagers for %d: %w", id, err))
		}

		if total > 0 {
			// One credit per participant, issued only after the round was
			// marked non-resolvable above.
			if err := m.ledger.Credit(ctx, id, total); err != nil {
				settleErr = errors.Join(settleErr, fmt.Errorf("credit %d to %d: %w", total, id, err))
				continue
			}
			res.Totals[id] = total
			if err := m.history.AddDailyWin(ctx, id, total); err != nil {
				settleErr = errors.Join(settleErr, fmt.Errorf("daily win for %d: %w", id, err))
			}
		}
	}

	if err := m.history.RecordSpin(ctx, chatID, outcome, string(res.Color)); err != nil {
		settleErr = errors.Join(settleErr, fmt.Errorf("record spin: %w", err))
	}

	r.mu.Lock()
	m.remove(chatID, r)
	r.mu.Unlock()
	return res, settleErr
}

func toStored(wagers []Wager) []model.StoredWager {
	out := make([]model.StoredWager, 0, len(wagers))
	for _, w := range wagers {
		s := model.StoredWager{Kind: string(w.Kind), Stake: w.Stake, Label: w.Label}
		switch w.Kind {
		case KindColor:
			// Color is recoverable from the label.
		case KindNumber:
			s.Value = w.Value
		case KindRange:
			s.Low, s.High = w.Low, w.High
		}
		out = append(out, s)
	}
	return out
}

func fromStored(s model.StoredWager) Wager {
	w := Wager{Kind: Kind(s.Kind), Stake: s.Stake, Label: s.Label}
	switch w.Kind {
	case KindColor:
		if s.Label == "RED" {
			w.Color = ColorRed
		} else {
			w.Color = ColorBlack
		}
	case KindNumber:
		w.Value = s.Value
	case KindRange:
		w.Low, w.High = s.Low, s.High
	}
	return w
}
