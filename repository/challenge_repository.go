package repository

import (
	"context"
	"fmt"
	"time"

	"tradesense/database"
	"tradesense/models"

	"github.com/jackc/pgx/v5"
)

// ChallengeRepository implements the ChallengeRepository interface
type ChallengeRepository struct {
	q queryable
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{q: db.Pool}
}

// newChallengeRepositoryWithTx creates a new challenge repository with a transaction
func newChallengeRepositoryWithTx(tx queryable) *ChallengeRepository {
	return &ChallengeRepository{q: tx}
}

const challengeColumns = `
	id, user_id, plan_id, start_balance, equity, daily_start_equity,
	last_daily_reset, status, status_reason, created_at, passed_at, failed_at`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.PlanID,
		&c.StartBalance,
		&c.Equity,
		&c.DailyStartEquity,
		&c.LastDailyReset,
		&c.Status,
		&c.StatusReason,
		&c.CreatedAt,
		&c.PassedAt,
		&c.FailedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new challenge
func (r *ChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenges (user_id, plan_id, start_balance, equity, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, last_daily_reset, created_at
	`

	err := r.q.QueryRow(ctx, query,
		challenge.UserID,
		challenge.PlanID,
		challenge.StartBalance,
		challenge.Equity,
		challenge.Status,
	).Scan(&challenge.ID, &challenge.LastDailyReset, &challenge.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create challenge for user %d: %w", challenge.UserID, err)
	}

	return nil
}

// GetByID retrieves a challenge by its ID
func (r *ChallengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + ` FROM challenges WHERE id = $1`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return challenge, nil
}

// GetByIDForUpdate retrieves a challenge and locks its row for the duration
// of the surrounding transaction
func (r *ChallengeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + ` FROM challenges WHERE id = $1 FOR UPDATE`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %d for update: %w", id, err)
	}
	return challenge, nil
}

// Update persists the mutable challenge fields in a single statement
func (r *ChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	query := `
		UPDATE challenges
		SET equity = $1,
		    daily_start_equity = $2,
		    last_daily_reset = $3,
		    status = $4,
		    status_reason = $5,
		    passed_at = $6,
		    failed_at = $7
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		challenge.Equity,
		challenge.DailyStartEquity,
		challenge.LastDailyReset,
		challenge.Status,
		challenge.StatusReason,
		challenge.PassedAt,
		challenge.FailedAt,
		challenge.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update challenge %d: %w", challenge.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("challenge %d not found", challenge.ID)
	}

	return nil
}

// GetActiveByUser returns the user's active challenge, if any
func (r *ChallengeRepository) GetActiveByUser(ctx context.Context, userID int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get active challenge for user %d: %w", userID, err)
	}
	return challenge, nil
}

// GetLatestByUser returns the user's most recently created challenge
func (r *ChallengeRepository) GetLatestByUser(ctx context.Context, userID int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest challenge for user %d: %w", userID, err)
	}
	return challenge, nil
}

// GetTopByProfit returns challenges created since the given time ranked by
// profit percentage over their starting balance
func (r *ChallengeRepository) GetTopByProfit(ctx context.Context, since time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT
			u.name,
			u.id,
			c.id,
			c.start_balance,
			c.equity,
			(c.equity - c.start_balance) / c.start_balance * 100 AS profit_pct,
			c.status
		FROM challenges c
		JOIN users u ON u.id = c.user_id
		WHERE c.created_at >= $1 AND c.equity > c.start_balance
		ORDER BY profit_pct DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(
			&e.TraderName,
			&e.UserID,
			&e.ChallengeID,
			&e.StartBalance,
			&e.Equity,
			&e.ProfitPct,
			&e.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return entries, nil
}
