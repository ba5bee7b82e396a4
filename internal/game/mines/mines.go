package mines

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/pkg/lock"
)

// Errors for the mines session lifecycle.
var (
	ErrInvalidStake  = errors.New("stake must be positive")
	ErrNoSession     = errors.New("no active mines session")
	ErrInvalidCell   = errors.New("cell out of range")
	ErrCellRevealed  = errors.New("cell already revealed")
	ErrNothingToCash = errors.New("reveal at least one cell before cashing out")
)

// Stats records settled winnings for the daily ranking.
type Stats interface {
	AddDailyWin(ctx context.Context, userID, amount int64) error
}

// Session is one active mines board. The live session never leaves the
// manager: Start and Session hand out deep snapshots, so a caller can render
// from one while a concurrent reveal mutates the original.
type Session struct {
	ChatID int64
	UserID int64
	Stake  int64

	// MessageID ties the session to the transport message carrying its
	// keyboard, so the handler can ignore taps on stale boards.
	MessageID int

	hazards  map[int]bool
	revealed []int
	isOpen   map[int]bool
}

// Hits returns the number of safe cells revealed so far.
func (s *Session) Hits() int { return len(s.revealed) }

// Revealed reports whether the cell was already opened.
func (s *Session) Revealed(cell int) bool { return s.isOpen[cell] }

// Multiplier returns the session's current locked-in multiplier.
func (s *Session) Multiplier() float64 { return Multiplier(s.Hits()) }

// PotentialPayout is what a cash-out would credit right now.
func (s *Session) PotentialPayout() int64 { return Payout(s.Stake, s.Hits()) }

// snapshot deep-copies the caller-visible state. The hazard layout stays
// behind: no query method needs it and it must not leak mid-game.
func (s *Session) snapshot() *Session {
	cp := &Session{
		ChatID:    s.ChatID,
		UserID:    s.UserID,
		Stake:     s.Stake,
		MessageID: s.MessageID,
		revealed:  append([]int(nil), s.revealed...),
		isOpen:    make(map[int]bool, len(s.isOpen)),
	}
	for c := range s.isOpen {
		cp.isOpen[c] = true
	}
	return cp
}

// RevealOutcome describes the effect of one reveal.
type RevealOutcome struct {
	Hazard    bool    // the cell was mined; the session is over, stake lost
	Completed bool    // all safe cells opened; payout credited automatically
	Hits      int     // safe reveals so far; a losing tap does not count
	Mult      float64 // multiplier after this reveal
	Payout    int64   // credited amount when Completed, else the potential cash-out
	Hazards   []int   // mined cells, populated only on a terminal outcome
}

// Manager owns all active sessions, one per (chat, user). The manager mutex
// guards the session map; session contents are only read or written under
// the owning key's lock, so concurrent taps on one board serialize.
type Manager struct {
	ledger game.Ledger
	stats  Stats

	mu       sync.Mutex
	sessions map[lock.ChatUser]*Session

	locks *lock.Keyed[lock.ChatUser]

	// test seam
	placeHazards func() map[int]bool
}

// New creates a mines manager.
func New(ledger game.Ledger, stats Stats) *Manager {
	return &Manager{
		ledger:       ledger,
		stats:        stats,
		sessions:     make(map[lock.ChatUser]*Session),
		locks:        lock.NewKeyed[lock.ChatUser](),
		placeHazards: randomHazards,
	}
}

func randomHazards() map[int]bool {
	hazards := make(map[int]bool, HazardCount)
	for _, cell := range rand.Perm(GridSize)[:HazardCount] {
		hazards[cell] = true
	}
	return hazards
}

// Start opens a new session for the key, debiting the stake. An existing
// active session is refunded and replaced rather than rejected, so a user
// who lost track of a board is never wedged.
func (m *Manager) Start(ctx context.Context, chatID, userID, stake int64) (*Session, error) {
	return m.start(ctx, chatID, userID, stake, nil)
}

// StartWithHazards opens a session with a fixed hazard layout, for
// deterministic boards in tests. Cells outside 0..24 are rejected.
func (m *Manager) StartWithHazards(ctx context.Context, chatID, userID, stake int64, cells []int) (*Session, error) {
	if len(cells) != HazardCount {
		return nil, fmt.Errorf("want %d hazard cells, got %d", HazardCount, len(cells))
	}
	hazards := make(map[int]bool, HazardCount)
	for _, c := range cells {
		if c < 0 || c >= GridSize {
			return nil, ErrInvalidCell
		}
		hazards[c] = true
	}
	if len(hazards) != HazardCount {
		return nil, fmt.Errorf("hazard cells must be distinct")
	}
	return m.start(ctx, chatID, userID, stake, hazards)
}

func (m *Manager) start(ctx context.Context, chatID, userID, stake int64, hazards map[int]bool) (*Session, error) {
	if stake <= 0 {
		return nil, ErrInvalidStake
	}

	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	m.locks.Acquire(key)
	defer m.locks.Release(key)

	// Force-replace: refund the old board before funding the new one.
	m.mu.Lock()
	old := m.sessions[key]
	m.mu.Unlock()
	if old != nil {
		if err := m.ledger.Credit(ctx, userID, old.Stake); err != nil {
			return nil, fmt.Errorf("refund previous session: %w", err)
		}
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
	}

	if err := m.ledger.Debit(ctx, userID, stake); err != nil {
		return nil, err
	}

	if hazards == nil {
		hazards = m.placeHazards()
	}
	s := &Session{
		ChatID:  chatID,
		UserID:  userID,
		Stake:   stake,
		hazards: hazards,
		isOpen:  make(map[int]bool),
	}
	m.mu.Lock()
	m.sessions[key] = s
	m.mu.Unlock()
	return s.snapshot(), nil
}

// Session returns a snapshot of the active session for the key, or
// ErrNoSession.
func (m *Manager) Session(chatID, userID int64) (*Session, error) {
	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	m.locks.Acquire(key)
	defer m.locks.Release(key)

	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	return s.snapshot(), nil
}

// SetMessageID pins the transport message the session's board lives in.
func (m *Manager) SetMessageID(chatID, userID int64, messageID int) error {
	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	m.locks.Acquire(key)
	defer m.locks.Release(key)

	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.MessageID = messageID
	return nil
}

// Reveal opens one cell. A mined cell loses the stake and ends the session;
// opening the last safe cell completes the board and credits the full-run
// payout automatically. Re-opening a revealed cell is rejected without
// mutating anything.
func (m *Manager) Reveal(ctx context.Context, chatID, userID int64, cell int) (*RevealOutcome, error) {
	if cell < 0 || cell >= GridSize {
		return nil, ErrInvalidCell
	}

	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	m.locks.Acquire(key)
	defer m.locks.Release(key)

	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	if s.isOpen[cell] {
		return nil, ErrCellRevealed
	}

	// The tap is part of the session's trace either way.
	s.isOpen[cell] = true
	s.revealed = append(s.revealed, cell)

	if s.hazards[cell] {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return &RevealOutcome{
			Hazard:  true,
			Hits:    len(s.revealed) - 1,
			Hazards: hazardList(s.hazards),
		}, nil
	}

	hits := s.Hits()

	if hits == safeCells {
		payout := Payout(s.Stake, hits)
		if err := m.ledger.Credit(ctx, userID, payout); err != nil {
			return nil, fmt.Errorf("credit completed board: %w", err)
		}
		if err := m.stats.AddDailyWin(ctx, userID, payout); err != nil {
			return nil, fmt.Errorf("daily win: %w", err)
		}
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return &RevealOutcome{
			Completed: true,
			Hits:      hits,
			Mult:      Multiplier(hits),
			Payout:    payout,
			Hazards:   hazardList(s.hazards),
		}, nil
	}

	return &RevealOutcome{
		Hits:   hits,
		Mult:   Multiplier(hits),
		Payout: Payout(s.Stake, hits),
	}, nil
}

// CashOut settles the active session at its current multiplier and credits
// the payout. At least one cell must be revealed.
func (m *Manager) CashOut(ctx context.Context, chatID, userID int64) (*RevealOutcome, error) {
	key := lock.ChatUser{ChatID: chatID, UserID: userID}
	m.locks.Acquire(key)
	defer m.locks.Release(key)

	m.mu.Lock()
	s, ok := m.sessions[key]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	if s.Hits() == 0 {
		return nil, ErrNothingToCash
	}

	payout := s.PotentialPayout()
	if err := m.ledger.Credit(ctx, userID, payout); err != nil {
		return nil, fmt.Errorf("credit cash-out: %w", err)
	}
	if err := m.stats.AddDailyWin(ctx, userID, payout); err != nil {
		return nil, fmt.Errorf("daily win: %w", err)
	}

	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return &RevealOutcome{
		Hits:    s.Hits(),
		Mult:    s.Multiplier(),
		Payout:  payout,
		Hazards: hazardList(s.hazards),
	}, nil
}

func hazardList(hazards map[int]bool) []int {
	out := make([]int, 0, len(hazards))
	for c := range hazards {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
