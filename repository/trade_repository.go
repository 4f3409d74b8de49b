package repository

import (
	"context"
	"fmt"

	"tradesense/database"
	"tradesense/models"
)

// TradeRepository implements the TradeRepository interface
type TradeRepository struct {
	q queryable
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *database.DB) *TradeRepository {
	return &TradeRepository{q: db.Pool}
}

// newTradeRepositoryWithTx creates a new trade repository with a transaction
func newTradeRepositoryWithTx(tx queryable) *TradeRepository {
	return &TradeRepository{q: tx}
}

// Create inserts a new trade record
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (challenge_id, symbol, side, qty, price, commission, pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, executed_at
	`

	err := r.q.QueryRow(ctx, query,
		trade.ChallengeID,
		trade.Symbol,
		trade.Side,
		trade.Qty,
		trade.Price,
		trade.Commission,
		trade.Pnl,
	).Scan(&trade.ID, &trade.ExecutedAt)

	if err != nil {
		return fmt.Errorf("failed to create trade for challenge %d: %w", trade.ChallengeID, err)
	}

	return nil
}

// GetByChallenge returns the most recent trades for a challenge
func (r *TradeRepository) GetByChallenge(ctx context.Context, challengeID int64, limit int) ([]*models.Trade, error) {
	query := `
		SELECT id, challenge_id, symbol, side, qty, price, commission, pnl, executed_at
		FROM trades
		WHERE challenge_id = $1
		ORDER BY executed_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for challenge %d: %w", challengeID, err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.ID,
			&t.ChallengeID,
			&t.Symbol,
			&t.Side,
			&t.Qty,
			&t.Price,
			&t.Commission,
			&t.Pnl,
			&t.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trade rows: %w", err)
	}

	return trades, nil
}

// CountByChallenge returns how many trades have executed against a challenge
func (r *TradeRepository) CountByChallenge(ctx context.Context, challengeID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM trades WHERE challenge_id = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, challengeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades for challenge %d: %w", challengeID, err)
	}

	return count, nil
}
