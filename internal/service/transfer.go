package service

import (
	"context"
	"errors"
	"fmt"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// Transfer-related errors.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSelfTransfer  = errors.New("cannot transfer to self")
)

// TransferService handles user-to-user transfers.
type TransferService struct {
	transfers *repository.TransferRepository
}

// NewTransferService creates a TransferService.
func NewTransferService(transfers *repository.TransferRepository) *TransferService {
	return &TransferService{transfers: transfers}
}

// Send moves amount from one user to another. Validation happens here; the
// balance check, both balance updates and the history row commit atomically
// in the repository.
func (s *TransferService) Send(ctx context.Context, fromID, toID int64, fromName, toName string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}
	if err := s.transfers.Transfer(ctx, fromID, toID, fromName, toName, amount); err != nil {
		return fmt.Errorf("transfer %d from %d to %d: %w", amount, fromID, toID, err)
	}
	return nil
}

// History returns the user's most recent transfers, sent or received.
func (s *TransferService) History(ctx context.Context, userID int64) ([]*model.Transfer, error) {
	return s.transfers.History(ctx, userID)
}
