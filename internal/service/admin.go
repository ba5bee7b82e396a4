package service

import (
	"context"
	"fmt"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// AdminService exposes the moderation operations. Authorization is the
// middleware's concern; everything here assumes an admin caller.
type AdminService struct {
	users   *repository.UserRepository
	history *repository.HistoryRepository
}

// NewAdminService creates an AdminService.
func NewAdminService(users *repository.UserRepository, history *repository.HistoryRepository) *AdminService {
	return &AdminService{users: users, history: history}
}

// AddBalance credits amount to the user and returns the updated row.
func (s *AdminService) AddBalance(ctx context.Context, telegramID, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.users.Credit(ctx, telegramID, amount); err != nil {
		return nil, fmt.Errorf("admin credit: %w", err)
	}
	return s.users.GetByID(ctx, telegramID)
}

// SetBalance overwrites the user's balance.
func (s *AdminService) SetBalance(ctx context.Context, telegramID, balance int64) (*model.User, error) {
	if balance < 0 {
		return nil, ErrInvalidAmount
	}
	return s.users.SetBalance(ctx, telegramID, balance)
}

// SetBanned bans or unbans the user.
func (s *AdminService) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	return s.users.SetBanned(ctx, telegramID, banned)
}

// SetGamesEnabled toggles all games in a chat.
func (s *AdminService) SetGamesEnabled(ctx context.Context, chatID int64, enabled bool) error {
	return s.history.SetGamesEnabled(ctx, chatID, enabled)
}

// GamesEnabled reports whether games are enabled in the chat.
func (s *AdminService) GamesEnabled(ctx context.Context, chatID int64) (bool, error) {
	return s.history.GamesEnabled(ctx, chatID)
}
