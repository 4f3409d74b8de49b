package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradesense/models"
	"tradesense/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyMetricRepository_CreateAndGetByDate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	repo := NewDailyMetricRepository(testDB.DB)
	ctx := context.Background()

	date := time.Date(2025, 3, 12, 15, 45, 0, 0, time.UTC)

	t.Run("no metric found", func(t *testing.T) {
		metric, err := repo.GetByDate(ctx, challenge.ID, date)
		require.NoError(t, err)
		assert.Nil(t, metric)
	})

	t.Run("create and read back", func(t *testing.T) {
		metric := &models.DailyMetric{
			ChallengeID:    challenge.ID,
			Date:           date,
			DayStartEquity: 5000,
			DayEndEquity:   5000,
		}
		err := repo.Create(ctx, metric)
		require.NoError(t, err)
		assert.NotZero(t, metric.ID)

		// Any time on the same UTC date resolves to the same row
		sameDay := time.Date(2025, 3, 12, 2, 10, 0, 0, time.UTC)
		found, err := repo.GetByDate(ctx, challenge.ID, sameDay)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, metric.ID, found.ID)
		assert.Equal(t, 5000.0, found.DayStartEquity)
	})

	t.Run("conflicting insert adopts existing row", func(t *testing.T) {
		duplicate := &models.DailyMetric{
			ChallengeID:    challenge.ID,
			Date:           date,
			DayStartEquity: 4800, // loser's snapshot must be discarded
			DayEndEquity:   4800,
		}
		err := repo.Create(ctx, duplicate)
		require.NoError(t, err)

		// The struct now carries the winning row
		assert.Equal(t, 5000.0, duplicate.DayStartEquity)

		var count int
		err = testDB.DB.QueryRow(ctx,
			`SELECT COUNT(*) FROM daily_metrics WHERE challenge_id = $1`, challenge.ID,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestDailyMetricRepository_ConcurrentCreateSingleRow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	repo := NewDailyMetricRepository(testDB.DB)
	ctx := context.Background()
	date := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			metric := &models.DailyMetric{
				ChallengeID:    challenge.ID,
				Date:           date,
				DayStartEquity: 5000 + float64(n), // only one snapshot may win
				DayEndEquity:   5000,
			}
			errs <- repo.Create(ctx, metric)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var count int
	err := testDB.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_metrics WHERE challenge_id = $1 AND date = $2`,
		challenge.ID, date,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDailyMetricRepository_GetLatestBefore(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	repo := NewDailyMetricRepository(testDB.DB)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	testutil.CreateTestDailyMetric(t, testDB.DB, challenge.ID, day1, 5000, 5100)
	testutil.CreateTestDailyMetric(t, testDB.DB, challenge.ID, day2, 5100, 5200)

	t.Run("returns most recent prior day", func(t *testing.T) {
		prior, err := repo.GetLatestBefore(ctx, challenge.ID, day3)
		require.NoError(t, err)
		require.NotNil(t, prior)
		assert.True(t, prior.Date.Equal(day2))
		assert.Equal(t, 5200.0, prior.DayEndEquity)
	})

	t.Run("excludes the query date itself", func(t *testing.T) {
		prior, err := repo.GetLatestBefore(ctx, challenge.ID, day1)
		require.NoError(t, err)
		assert.Nil(t, prior)
	})
}

func TestDailyMetricRepository_UpdateClose(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	repo := NewDailyMetricRepository(testDB.DB)
	ctx := context.Background()
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	metric := testutil.CreateTestDailyMetric(t, testDB.DB, challenge.ID, date, 5000, 5000)

	err := repo.UpdateClose(ctx, metric.ID, 5150, 150)
	require.NoError(t, err)

	found, err := repo.GetByDate(ctx, challenge.ID, date)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 5150.0, found.DayEndEquity)
	assert.Equal(t, 150.0, found.DayPnl)
	// Opening equity is immutable once written
	assert.Equal(t, 5000.0, found.DayStartEquity)

	err = repo.UpdateClose(ctx, 999999, 1, 1)
	assert.Error(t, err)
}
