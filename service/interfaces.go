package service

import (
	"context"
	"time"

	"tradesense/events"
	"tradesense/models"
)

// ChallengeRepository defines the interface for challenge data access
type ChallengeRepository interface {
	// Create inserts a new challenge and fills in generated fields
	Create(ctx context.Context, challenge *models.Challenge) error

	// GetByID retrieves a challenge by its ID, returning (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.Challenge, error)

	// GetByIDForUpdate retrieves a challenge with a row lock, serializing
	// concurrent evaluations of the same challenge
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Challenge, error)

	// Update persists equity, daily-rollover bookkeeping, status and
	// timestamps in a single statement
	Update(ctx context.Context, challenge *models.Challenge) error

	// GetActiveByUser returns the user's active challenge, if any
	GetActiveByUser(ctx context.Context, userID int64) (*models.Challenge, error)

	// GetLatestByUser returns the user's most recently created challenge
	GetLatestByUser(ctx context.Context, userID int64) (*models.Challenge, error)

	// GetTopByProfit returns challenges created since the given time ranked
	// by profit percentage, joined with their owners' names
	GetTopByProfit(ctx context.Context, since time.Time, limit int) ([]*models.LeaderboardEntry, error)
}

// DailyMetricRepository defines the interface for per-day equity snapshots
type DailyMetricRepository interface {
	// GetByDate returns the metric for a challenge on the given UTC date,
	// or (nil, nil) when none exists
	GetByDate(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error)

	// GetLatestBefore returns the most recent metric strictly before the
	// given UTC date, or (nil, nil) when none exists
	GetLatestBefore(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error)

	// Create inserts the metric for a new day. A racing insert for the same
	// (challenge, date) resolves to the existing row, which is loaded back
	// into the passed struct.
	Create(ctx context.Context, metric *models.DailyMetric) error

	// UpdateClose updates the closing equity and recomputed PnL of a metric
	UpdateClose(ctx context.Context, metricID int64, dayEndEquity, dayPnl float64) error
}

// TradeRepository defines the interface for the append-only trade ledger
type TradeRepository interface {
	// Create inserts a new trade record
	Create(ctx context.Context, trade *models.Trade) error

	// GetByChallenge returns the most recent trades for a challenge
	GetByChallenge(ctx context.Context, challengeID int64, limit int) ([]*models.Trade, error)

	// CountByChallenge returns how many trades have executed against a challenge
	CountByChallenge(ctx context.Context, challengeID int64) (int64, error)
}

// PlanRepository defines the interface for plan data access
type PlanRepository interface {
	// Create inserts a new plan
	Create(ctx context.Context, plan *models.Plan) error

	// GetBySlug retrieves a plan by its slug, returning (nil, nil) when absent
	GetBySlug(ctx context.Context, slug string) (*models.Plan, error)

	// GetAll returns all plans
	GetAll(ctx context.Context) ([]*models.Plan, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID, returning (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// RulesService evaluates challenge rules after each trade
type RulesService interface {
	// Evaluate applies the day rollover and the loss/profit rules to a
	// challenge, in fixed priority order: total loss, daily loss, profit
	// target. A missing or non-active challenge is a no-op, not an error.
	Evaluate(ctx context.Context, challengeID int64) (*models.EvaluationResult, error)
}

// TradeService executes trades against active challenges
type TradeService interface {
	// ExecuteTrade executes a market order, deducts commission from equity
	// and triggers exactly one rule evaluation
	ExecuteTrade(ctx context.Context, userID, challengeID int64, symbol string, side models.TradeSide, qty float64) (*models.TradeResult, error)

	// SimulateTrade resolves an order instantly with a bounded random PnL
	// applied to equity, then triggers exactly one rule evaluation. This is
	// the path that can move equity in both directions.
	SimulateTrade(ctx context.Context, userID, challengeID int64, symbol string, side models.TradeSide) (*models.TradeResult, error)

	// GetTrades returns recent trades for a challenge owned by the user
	GetTrades(ctx context.Context, userID, challengeID int64, limit int) ([]*models.Trade, error)
}

// ChallengeService manages the challenge lifecycle outside rule evaluation
type ChallengeService interface {
	// StartChallenge activates a new challenge for the user on the given plan
	StartChallenge(ctx context.Context, userID int64, planSlug string) (*models.Challenge, error)

	// GetActiveChallenge returns the user's active challenge, falling back
	// to their most recent one
	GetActiveChallenge(ctx context.Context, userID int64) (*models.Challenge, error)

	// GetChallengeDetail returns a challenge with its derived rule levels
	GetChallengeDetail(ctx context.Context, userID, challengeID int64) (*models.ChallengeDetail, error)
}

// LeaderboardService ranks challenges by performance
type LeaderboardService interface {
	// GetMonthlyTop returns the best performing challenges created in the
	// current month
	GetMonthlyTop(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	ChallengeRepository() ChallengeRepository
	DailyMetricRepository() DailyMetricRepository
	TradeRepository() TradeRepository
	PlanRepository() PlanRepository
	UserRepository() UserRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
