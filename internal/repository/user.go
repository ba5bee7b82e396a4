// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = "telegram_id, username, full_name, balance, banned, last_bonus, created_at, updated_at"

// UserRepository is the ledger of record: it owns user rows and all balance
// mutations. It implements game.Ledger.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.TelegramID,
		&u.Username,
		&u.FullName,
		&u.Balance,
		&u.Banned,
		&u.LastBonus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create creates a new user with a zero starting balance.
func (r *UserRepository) Create(ctx context.Context, telegramID int64, username, fullName string) (*model.User, error) {
	const query = `
		INSERT INTO users (telegram_id, username, full_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, username, fullName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetOrCreate retrieves a user by Telegram ID, creating the row if absent.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, fullName string) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, telegramID, username, fullName)
	if err != nil {
		// Another request may have created the user concurrently.
		user, err = r.GetByID(ctx, telegramID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	return user, true, nil
}

// Balance returns the user's current balance.
func (r *UserRepository) Balance(ctx context.Context, telegramID int64) (int64, error) {
	const query = `SELECT balance FROM users WHERE telegram_id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Debit atomically subtracts amount from the user's balance. The conditional
// update rejects the whole debit when the balance does not cover it, so a
// concurrent spend can never drive the balance negative.
func (r *UserRepository) Debit(ctx context.Context, telegramID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	const query = `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE telegram_id = $1 AND balance >= $2
	`

	tag, err := r.pool.Exec(ctx, query, telegramID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrInsufficientFunds
	}
	return nil
}

// Credit atomically adds amount to the user's balance.
func (r *UserRepository) Credit(ctx context.Context, telegramID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	const query = `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE telegram_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, telegramID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetBalance sets a user's balance to an exact value. Admin operation.
func (r *UserRepository) SetBalance(ctx context.Context, telegramID, balance int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET balance = $2, updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, telegramID, balance))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}
	return u, nil
}

// SetBanned updates a user's ban flag. Banned users are dropped by the bot
// middleware before any handler runs.
func (r *UserRepository) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	const query = `UPDATE users SET banned = $2, updated_at = NOW() WHERE telegram_id = $1`

	tag, err := r.pool.Exec(ctx, query, telegramID, banned)
	if err != nil {
		return fmt.Errorf("failed to set ban status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateName refreshes the stored username/full name.
func (r *UserRepository) UpdateName(ctx context.Context, telegramID int64, username, fullName string) error {
	const query = `
		UPDATE users
		SET username = $2, full_name = $3, updated_at = NOW()
		WHERE telegram_id = $1
	`
	if _, err := r.pool.Exec(ctx, query, telegramID, username, fullName); err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}
	return nil
}

// TopByBalance retrieves the top N users by balance.
func (r *UserRepository) TopByBalance(ctx context.Context, limit int) ([]*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY balance DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// CreditBonus credits the daily bonus and stamps the claim time in one
// statement, so a failure leaves neither a burned claim nor an unpaid one.
func (r *UserRepository) CreditBonus(ctx context.Context, telegramID, amount int64, at time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("bonus amount must be positive, got %d", amount)
	}

	const query = `
		UPDATE users
		SET balance = balance + $2, last_bonus = $3, updated_at = NOW()
		WHERE telegram_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, telegramID, amount, at)
	if err != nil {
		return fmt.Errorf("failed to credit bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
