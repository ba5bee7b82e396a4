package service

import (
	"context"

	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// RankingService serves the daily winnings leaderboard.
type RankingService struct {
	history *repository.HistoryRepository
}

// NewRankingService creates a RankingService.
func NewRankingService(history *repository.HistoryRepository) *RankingService {
	return &RankingService{history: history}
}

// DailyWinners returns today's top winners by credited winnings.
func (s *RankingService) DailyWinners(ctx context.Context, limit int) ([]*model.DailyRank, error) {
	return s.history.TopDailyWinners(ctx, limit)
}

// ResetDaily clears the accumulated daily winnings. The midnight cron job is
// the only intended caller.
func (s *RankingService) ResetDaily(ctx context.Context) error {
	return s.history.ResetDailyWins(ctx)
}

// RecentSpins returns the chat's recent roulette outcomes, newest first.
func (s *RankingService) RecentSpins(ctx context.Context, chatID int64) ([]model.SpinRecord, error) {
	return s.history.RecentSpins(ctx, chatID)
}
