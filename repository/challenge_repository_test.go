package repository

import (
	"context"
	"testing"
	"time"

	"tradesense/models"
	"tradesense/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)

	repo := NewChallengeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing challenge returns nil", func(t *testing.T) {
		challenge, err := repo.GetByID(ctx, 12345)
		require.NoError(t, err)
		assert.Nil(t, challenge)
	})

	t.Run("create and read back", func(t *testing.T) {
		challenge := &models.Challenge{
			UserID:       user.ID,
			PlanID:       plan.ID,
			StartBalance: 5000,
			Equity:       5000,
			Status:       models.ChallengeStatusActive,
		}
		err := repo.Create(ctx, challenge)
		require.NoError(t, err)
		assert.NotZero(t, challenge.ID)
		assert.False(t, challenge.CreatedAt.IsZero())

		found, err := repo.GetByID(ctx, challenge.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, models.ChallengeStatusActive, found.Status)
		assert.Nil(t, found.DailyStartEquity)
		assert.Nil(t, found.PassedAt)
		assert.Nil(t, found.FailedAt)
	})
}

func TestChallengeRepository_Update(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	repo := NewChallengeRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	reason := "failed_total_loss"
	dayStart := 5000.0

	challenge.Equity = 4400
	challenge.DailyStartEquity = &dayStart
	challenge.LastDailyReset = now
	challenge.Status = models.ChallengeStatusFailed
	challenge.StatusReason = &reason
	challenge.FailedAt = &now

	err := repo.Update(ctx, challenge)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 4400.0, found.Equity)
	assert.Equal(t, models.ChallengeStatusFailed, found.Status)
	require.NotNil(t, found.StatusReason)
	assert.Equal(t, "failed_total_loss", *found.StatusReason)
	require.NotNil(t, found.FailedAt)
	assert.True(t, found.FailedAt.Equal(now))
	require.NotNil(t, found.DailyStartEquity)
	assert.Equal(t, 5000.0, *found.DailyStartEquity)

	t.Run("unknown id errors", func(t *testing.T) {
		bogus := *challenge
		bogus.ID = 999999
		err := repo.Update(ctx, &bogus)
		assert.Error(t, err)
	})
}

func TestChallengeRepository_GetActiveByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)

	repo := NewChallengeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no challenges", func(t *testing.T) {
		challenge, err := repo.GetActiveByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, challenge)
	})

	first := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	// Fail the first, open a second: only the second is active
	reason := "failed_daily_loss"
	now := time.Now().UTC()
	first.Status = models.ChallengeStatusFailed
	first.StatusReason = &reason
	first.FailedAt = &now
	require.NoError(t, repo.Update(ctx, first))

	second := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 15000)

	active, err := repo.GetActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	latest, err := repo.GetLatestByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestChallengeRepository_GetTopByProfit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)

	repo := NewChallengeRepository(testDB.DB)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, testDB.DB, "alice", "alice@example.com")
	bob := testutil.CreateTestUser(t, testDB.DB, "bob", "bob@example.com")
	carol := testutil.CreateTestUser(t, testDB.DB, "carol", "carol@example.com")

	up8 := testutil.CreateTestChallenge(t, testDB.DB, alice.ID, plan.ID, 5000)
	up8.Equity = 5400 // +8%
	require.NoError(t, repo.Update(ctx, up8))

	up2 := testutil.CreateTestChallenge(t, testDB.DB, bob.ID, plan.ID, 5000)
	up2.Equity = 5100 // +2%
	require.NoError(t, repo.Update(ctx, up2))

	down := testutil.CreateTestChallenge(t, testDB.DB, carol.ID, plan.ID, 5000)
	down.Equity = 4900 // losers are excluded
	require.NoError(t, repo.Update(ctx, down))

	since := time.Now().UTC().Add(-time.Hour)
	entries, err := repo.GetTopByProfit(ctx, since, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "alice", entries[0].TraderName)
	assert.InDelta(t, 8.0, entries[0].ProfitPct, 1e-9)
	assert.Equal(t, "bob", entries[1].TraderName)
	assert.InDelta(t, 2.0, entries[1].ProfitPct, 1e-9)
}
