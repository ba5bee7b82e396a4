// Package basketball implements the single-shot basketball wager: one debit,
// one draw, an immediate settle.
package basketball

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/pkg/lock"
)

// StakeAllIn makes Play wager the user's full balance.
const StakeAllIn int64 = -1

// Errors for the basketball wager.
var (
	ErrInvalidStake = errors.New("stake must be positive")
	// ErrThrowInProgress reports a second throw while one is still
	// settling for the same (chat, user). Callers drop it silently.
	ErrThrowInProgress = errors.New("throw already in progress")
)

// Stats records settled winnings for the daily ranking.
type Stats interface {
	AddDailyWin(ctx context.Context, userID, amount int64) error
}

// Result is one settled throw.
type Result struct {
	Value  int     // dice value 1..5
	Won    bool    // value >= 4
	Mult   float64 // 0 on a miss
	Stake  int64   // the resolved stake, after AllIn expansion
	Payout int64   // credited amount, 0 on a miss
}

// Manager plays basketball throws. Per-(chat,user) anti-flood: a throw that
// arrives while another is in flight is rejected, not queued.
type Manager struct {
	ledger game.Ledger
	stats  Stats

	flights *lock.Keyed[lock.ChatUser]

	// test seams
	draw func() int          // uniform 1..5
	spin func() float64      // uniform [0,1), scales the 4-value multiplier
}

// New creates a basketball manager.
func New(ledger game.Ledger, stats Stats) *Manager {
	return &Manager{
		ledger:  ledger,
		stats:   stats,
		flights: lock.NewKeyed[lock.ChatUser](),
		draw:    func() int { return rand.Intn(5) + 1 },
		spin:    rand.Float64,
	}
}

// Play debits the stake, draws the throw and settles it. A draw of 4 or 5
// wins; 5 pays x2.0 and 4 pays a uniform multiplier in [1.4, 1.9] rounded to
// one decimal, the payout truncated to whole units. StakeAllIn wagers the
// full balance; an empty balance is rejected rather than a zero-stake throw.
func (m *Manager) Play(ctx context.Context, chatID, userID, stake int64) (*Result, error) {
	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	if !m.flights.TryAcquire(key) {
		return nil, ErrThrowInProgress
	}
	defer m.flights.Release(key)

	if stake == StakeAllIn {
		balance, err := m.ledger.Balance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("balance lookup failed: %w", err)
		}
		if balance <= 0 {
			return nil, game.ErrInsufficientFunds
		}
		stake = balance
	}
	if stake <= 0 {
		return nil, ErrInvalidStake
	}

	if err := m.ledger.Debit(ctx, userID, stake); err != nil {
		return nil, err
	}

	value := m.draw()
	res := &Result{Value: value, Stake: stake}
	if value < 4 {
		return res, nil
	}

	res.Won = true
	if value == 5 {
		res.Mult = 2.0
	} else {
		res.Mult = math.Round((1.4+m.spin()*0.5)*10) / 10
	}
	res.Payout = int64(float64(stake) * res.Mult)

	if err := m.ledger.Credit(ctx, userID, res.Payout); err != nil {
		return nil, fmt.Errorf("credit payout: %w", err)
	}
	if err := m.stats.AddDailyWin(ctx, userID, res.Payout); err != nil {
		return nil, fmt.Errorf("daily win: %w", err)
	}
	return res, nil
}
