package service

import (
	"context"
	"testing"
	"time"

	"tradesense/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardService_GetMonthlyTop(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockChallengeRepo := new(MockChallengeRepository)
	mockUoW.SetRepositories(mockChallengeRepo, nil, nil, nil, nil)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := &leaderboardService{
		uowFactory: mockFactory,
		now:        func() time.Time { return now },
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	startOfMonth := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mockChallengeRepo.On("GetTopByProfit", ctx, startOfMonth, 10).Return([]*models.LeaderboardEntry{
		{TraderName: "amina", ProfitPct: 8.4},
		{TraderName: "karim", ProfitPct: 3.1},
	}, nil)

	entries, err := svc.GetMonthlyTop(ctx, 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "amina", entries[0].TraderName)
}
