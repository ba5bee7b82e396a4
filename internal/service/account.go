// Package service provides business logic on top of the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// Common errors for account operations.
var (
	ErrBonusOnCooldown = errors.New("daily bonus already claimed")
)

// AccountService handles registration, profiles and the daily bonus.
type AccountService struct {
	users       *repository.UserRepository
	bonusAmount int64
	cooldown    time.Duration

	now func() time.Time
}

// NewAccountService creates an AccountService. The cooldown is expressed in
// hours to mirror the configuration.
func NewAccountService(users *repository.UserRepository, bonusAmount int64, cooldownHours int) *AccountService {
	return &AccountService{
		users:       users,
		bonusAmount: bonusAmount,
		cooldown:    time.Duration(cooldownHours) * time.Hour,
		now:         time.Now,
	}
}

// EnsureUser ensures an account row exists for the Telegram user, creating
// one on first contact. A changed display name is refreshed in place.
// Returns the user and whether it was newly created.
func (s *AccountService) EnsureUser(ctx context.Context, telegramID int64, username, fullName string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, telegramID, username, fullName)
	if err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}

	if !created && (user.Username != username || user.FullName != fullName) {
		if err := s.users.UpdateName(ctx, telegramID, username, fullName); err != nil {
			// Stale name only; the account itself is fine.
			return user, false, nil
		}
		user.Username = username
		user.FullName = fullName
	}
	return user, created, nil
}

// Profile returns the account row for display.
func (s *AccountService) Profile(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByID(ctx, telegramID)
}

// Balance returns the user's current balance.
func (s *AccountService) Balance(ctx context.Context, telegramID int64) (int64, error) {
	return s.users.Balance(ctx, telegramID)
}

// ClaimBonus credits the daily bonus when the cooldown has elapsed. On
// cooldown it returns ErrBonusOnCooldown together with the remaining wait.
func (s *AccountService) ClaimBonus(ctx context.Context, telegramID int64) (int64, time.Duration, error) {
	user, err := s.users.GetByID(ctx, telegramID)
	if err != nil {
		return 0, 0, fmt.Errorf("claim bonus: %w", err)
	}

	if remaining := bonusRemaining(user.LastBonus, s.now(), s.cooldown); remaining > 0 {
		return 0, remaining, ErrBonusOnCooldown
	}

	if err := s.users.CreditBonus(ctx, telegramID, s.bonusAmount, s.now()); err != nil {
		return 0, 0, fmt.Errorf("credit bonus: %w", err)
	}
	return s.bonusAmount, 0, nil
}

// bonusRemaining returns how long until the next bonus claim, 0 when the
// claim is available. A zero lastBonus means the bonus was never claimed.
func bonusRemaining(lastBonus, now time.Time, cooldown time.Duration) time.Duration {
	if lastBonus.IsZero() {
		return 0
	}
	remaining := cooldown - now.Sub(lastBonus)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TopUsers returns the richest accounts for the leaderboard.
func (s *AccountService) TopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return s.users.TopByBalance(ctx, limit)
}
