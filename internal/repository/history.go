package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// RecentSpinLimit caps the recent-outcome log read for a chat.
const RecentSpinLimit = 10

// HistoryRepository persists the game side-state that outlives a round:
// last-wager sets for replay, the recent-spin log, the per-chat games
// toggle and the daily winnings stats. None of it is transactionally coupled
// to the in-memory round locks.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository instance.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// SaveLastWagers stores the user's wager set as JSONB, replacing any
// previous set. Used by the repeat/double buttons.
func (r *HistoryRepository) SaveLastWagers(ctx context.Context, userID int64, wagers []model.StoredWager) error {
	data, err := json.Marshal(wagers)
	if err != nil {
		return fmt.Errorf("failed to marshal wagers: %w", err)
	}

	const query = `
		INSERT INTO last_wagers (user_id, wagers)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET wagers = EXCLUDED.wagers
	`
	if _, err := r.pool.Exec(ctx, query, userID, data); err != nil {
		return fmt.Errorf("failed to save last wagers: %w", err)
	}
	return nil
}

// LastWagers returns the user's stored wager set, or nil when none exists.
func (r *HistoryRepository) LastWagers(ctx context.Context, userID int64) ([]model.StoredWager, error) {
	const query = `SELECT wagers FROM last_wagers WHERE user_id = $1`

	var data []byte
	err := r.pool.QueryRow(ctx, query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last wagers: %w", err)
	}

	var wagers []model.StoredWager
	if err := json.Unmarshal(data, &wagers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wagers: %w", err)
	}
	return wagers, nil
}

// RecordSpin appends a roulette outcome to the chat's log.
func (r *HistoryRepository) RecordSpin(ctx context.Context, chatID int64, number int, color string) error {
	const query = `INSERT INTO spin_log (chat_id, number, color) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, chatID, number, color); err != nil {
		return fmt.Errorf("failed to record spin: %w", err)
	}
	return nil
}

// RecentSpins returns the chat's most recent outcomes, newest first, capped
// at RecentSpinLimit.
func (r *HistoryRepository) RecentSpins(ctx context.Context, chatID int64) ([]model.SpinRecord, error) {
	const query = `
		SELECT chat_id, number, color, created_at
		FROM spin_log
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatID, RecentSpinLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent spins: %w", err)
	}
	defer rows.Close()

	var spins []model.SpinRecord
	for rows.Next() {
		var s model.SpinRecord
		if err := rows.Scan(&s.ChatID, &s.Number, &s.Color, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spin: %w", err)
		}
		spins = append(spins, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spins: %w", err)
	}
	return spins, nil
}

// SetGamesEnabled toggles games for a chat.
func (r *HistoryRepository) SetGamesEnabled(ctx context.Context, chatID int64, enabled bool) error {
	const query = `
		INSERT INTO chat_settings (chat_id, games_enabled)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET games_enabled = EXCLUDED.games_enabled
	`
	if _, err := r.pool.Exec(ctx, query, chatID, enabled); err != nil {
		return fmt.Errorf("failed to set games toggle: %w", err)
	}
	return nil
}

// GamesEnabled reports whether games are enabled for a chat. Chats without a
// settings row default to enabled.
func (r *HistoryRepository) GamesEnabled(ctx context.Context, chatID int64) (bool, error) {
	const query = `SELECT games_enabled FROM chat_settings WHERE chat_id = $1`

	var enabled bool
	err := r.pool.QueryRow(ctx, query, chatID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("failed to get games toggle: %w", err)
	}
	return enabled, nil
}

// AddDailyWin accumulates winnings into the daily stats.
func (r *HistoryRepository) AddDailyWin(ctx context.Context, userID, amount int64) error {
	const query = `
		INSERT INTO daily_stats (user_id, winnings)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET winnings = daily_stats.winnings + EXCLUDED.winnings
	`
	if _, err := r.pool.Exec(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("failed to add daily win: %w", err)
	}
	return nil
}

// TopDailyWinners returns today's biggest winners, largest first.
func (r *HistoryRepository) TopDailyWinners(ctx context.Context, limit int) ([]*model.DailyRank, error) {
	const query = `
		SELECT d.user_id, u.username, d.winnings
		FROM daily_stats d
		JOIN users u ON u.telegram_id = d.user_id
		WHERE d.winnings > 0
		ORDER BY d.winnings DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily winners: %w", err)
	}
	defer rows.Close()

	var ranks []*model.DailyRank
	for rows.Next() {
		var rank model.DailyRank
		if err := rows.Scan(&rank.UserID, &rank.Username, &rank.Winnings); err != nil {
			return nil, fmt.Errorf("failed to scan rank: %w", err)
		}
		ranks = append(ranks, &rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranks: %w", err)
	}
	return ranks, nil
}

// ResetDailyWins clears the daily stats. Invoked by the midnight cron job.
func (r *HistoryRepository) ResetDailyWins(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM daily_stats`); err != nil {
		return fmt.Errorf("failed to reset daily stats: %w", err)
	}
	return nil
}
