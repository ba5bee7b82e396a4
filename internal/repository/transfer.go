package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
)

// TransferRepository executes user-to-user transfers and serves their
// history. A transfer is one database transaction: conditional debit, credit
// and history row commit together or not at all.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository instance.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Transfer moves amount from one user to another. Returns
// game.ErrInsufficientFunds when the sender's balance does not cover it.
func (r *TransferRepository) Transfer(ctx context.Context, fromID, toID int64, fromName, toName string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE telegram_id = $1 AND balance >= $2
	`, fromID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit sender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrInsufficientFunds
	}

	tag, err = tx.Exec(ctx, `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE telegram_id = $1
	`, toID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (from_id, from_name, to_id, to_name, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, fromID, fromName, toID, toName, amount)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

// History returns the user's last 10 transfers, newest first, in either
// direction.
func (r *TransferRepository) History(ctx context.Context, userID int64) ([]*model.Transfer, error) {
	const query = `
		SELECT id, from_id, from_name, to_id, to_name, amount, created_at
		FROM transfers
		WHERE from_id = $1 OR to_id = $1
		ORDER BY id DESC
		LIMIT 10
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer history: %w", err)
	}
	defer rows.Close()

	var transfers []*model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.FromID, &t.FromName, &t.ToID, &t.ToName, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
