package repository

import (
	"context"
	"fmt"
	"time"

	"tradesense/database"
	"tradesense/models"

	"github.com/jackc/pgx/v5"
)

// DailyMetricRepository implements the DailyMetricRepository interface
type DailyMetricRepository struct {
	q queryable
}

// NewDailyMetricRepository creates a new daily metric repository
func NewDailyMetricRepository(db *database.DB) *DailyMetricRepository {
	return &DailyMetricRepository{q: db.Pool}
}

// newDailyMetricRepositoryWithTx creates a new daily metric repository with a transaction
func newDailyMetricRepositoryWithTx(tx queryable) *DailyMetricRepository {
	return &DailyMetricRepository{q: tx}
}

const dailyMetricColumns = `
	id, challenge_id, date, day_start_equity, day_end_equity, day_pnl, created_at`

func scanDailyMetric(row pgx.Row) (*models.DailyMetric, error) {
	var m models.DailyMetric
	err := row.Scan(
		&m.ID,
		&m.ChallengeID,
		&m.Date,
		&m.DayStartEquity,
		&m.DayEndEquity,
		&m.DayPnl,
		&m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Date = models.MetricDate(m.Date)
	return &m, nil
}

// GetByDate returns the metric for a challenge on the given UTC date
func (r *DailyMetricRepository) GetByDate(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error) {
	query := `SELECT` + dailyMetricColumns + `
		FROM daily_metrics
		WHERE challenge_id = $1 AND date = $2`

	metric, err := scanDailyMetric(r.q.QueryRow(ctx, query, challengeID, models.MetricDate(date)))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metric for challenge %d: %w", challengeID, err)
	}
	return metric, nil
}

// GetLatestBefore returns the most recent metric strictly before the given date
func (r *DailyMetricRepository) GetLatestBefore(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error) {
	query := `SELECT` + dailyMetricColumns + `
		FROM daily_metrics
		WHERE challenge_id = $1 AND date < $2
		ORDER BY date DESC
		LIMIT 1`

	metric, err := scanDailyMetric(r.q.QueryRow(ctx, query, challengeID, models.MetricDate(date)))
	if err != nil {
		return nil, fmt.Errorf("failed to get prior daily metric for challenge %d: %w", challengeID, err)
	}
	return metric, nil
}

// Create inserts the metric for a new day. The unique constraint on
// (challenge_id, date) makes a racing insert a no-op; the existing row is
// then loaded back into the passed struct so the caller always continues
// with the winning snapshot.
func (r *DailyMetricRepository) Create(ctx context.Context, metric *models.DailyMetric) error {
	metric.Date = models.MetricDate(metric.Date)

	query := `
		INSERT INTO daily_metrics (challenge_id, date, day_start_equity, day_end_equity, day_pnl)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (challenge_id, date) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		metric.ChallengeID,
		metric.Date,
		metric.DayStartEquity,
		metric.DayEndEquity,
		metric.DayPnl,
	).Scan(&metric.ID, &metric.CreatedAt)

	if err == pgx.ErrNoRows {
		// Lost the insert race, adopt the existing row
		existing, getErr := r.GetByDate(ctx, metric.ChallengeID, metric.Date)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return fmt.Errorf("daily metric for challenge %d vanished after conflicting insert", metric.ChallengeID)
		}
		*metric = *existing
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create daily metric for challenge %d: %w", metric.ChallengeID, err)
	}

	return nil
}

// UpdateClose updates the closing equity and recomputed PnL of a metric
func (r *DailyMetricRepository) UpdateClose(ctx context.Context, metricID int64, dayEndEquity, dayPnl float64) error {
	query := `
		UPDATE daily_metrics
		SET day_end_equity = $1, day_pnl = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, dayEndEquity, dayPnl, metricID)
	if err != nil {
		return fmt.Errorf("failed to update daily metric %d: %w", metricID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("daily metric %d not found", metricID)
	}

	return nil
}
