package testutil

import (
	"context"
	"testing"
	"time"

	"tradesense/database"
	"tradesense/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user row and returns it
func CreateTestUser(t *testing.T, db *database.DB, name, email string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: email}
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id, created_at`,
		name, email,
	).Scan(&user.ID, &user.CreatedAt)
	require.NoError(t, err)

	return user
}

// CreateTestPlan inserts a plan row and returns it
func CreateTestPlan(t *testing.T, db *database.DB, slug string, startBalance float64) *models.Plan {
	t.Helper()

	plan := &models.Plan{Slug: slug, Price: 200, StartBalance: startBalance}
	err := db.QueryRow(context.Background(),
		`INSERT INTO plans (slug, price, start_balance) VALUES ($1, $2, $3) RETURNING id, created_at`,
		plan.Slug, plan.Price, plan.StartBalance,
	).Scan(&plan.ID, &plan.CreatedAt)
	require.NoError(t, err)

	return plan
}

// CreateTestChallenge inserts an active challenge with equal start balance
// and equity for the given user and plan
func CreateTestChallenge(t *testing.T, db *database.DB, userID, planID int64, startBalance float64) *models.Challenge {
	t.Helper()

	challenge := &models.Challenge{
		UserID:       userID,
		PlanID:       planID,
		StartBalance: startBalance,
		Equity:       startBalance,
		Status:       models.ChallengeStatusActive,
	}
	err := db.QueryRow(context.Background(),
		`INSERT INTO challenges (user_id, plan_id, start_balance, equity, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, last_daily_reset, created_at`,
		challenge.UserID, challenge.PlanID, challenge.StartBalance, challenge.Equity, challenge.Status,
	).Scan(&challenge.ID, &challenge.LastDailyReset, &challenge.CreatedAt)
	require.NoError(t, err)

	return challenge
}

// CreateTestDailyMetric inserts a metric row for the given UTC date
func CreateTestDailyMetric(t *testing.T, db *database.DB, challengeID int64, date time.Time, dayStart, dayEnd float64) *models.DailyMetric {
	t.Helper()

	metric := &models.DailyMetric{
		ChallengeID:    challengeID,
		Date:           models.MetricDate(date),
		DayStartEquity: dayStart,
		DayEndEquity:   dayEnd,
		DayPnl:         dayEnd - dayStart,
	}
	err := db.QueryRow(context.Background(),
		`INSERT INTO daily_metrics (challenge_id, date, day_start_equity, day_end_equity, day_pnl)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		metric.ChallengeID, metric.Date, metric.DayStartEquity, metric.DayEndEquity, metric.DayPnl,
	).Scan(&metric.ID, &metric.CreatedAt)
	require.NoError(t, err)

	return metric
}
