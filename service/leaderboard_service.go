package service

import (
	"context"
	"fmt"
	"time"

	"tradesense/models"
)

type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(uowFactory UnitOfWorkFactory) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (s *leaderboardService) GetMonthlyTop(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	now := s.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.ChallengeRepository().GetTopByProfit(ctx, startOfMonth, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for i, entry := range entries {
		entry.Rank = i + 1
	}

	return entries, nil
}
