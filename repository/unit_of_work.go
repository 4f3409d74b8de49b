package repository

import (
	"context"
	"fmt"

	"tradesense/database"
	"tradesense/events"
	"tradesense/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	challengeRepo    service.ChallengeRepository
	dailyMetricRepo  service.DailyMetricRepository
	tradeRepo        service.TradeRepository
	planRepo         service.PlanRepository
	userRepo         service.UserRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.challengeRepo = newChallengeRepositoryWithTx(tx)
	u.dailyMetricRepo = newDailyMetricRepositoryWithTx(tx)
	u.tradeRepo = newTradeRepositoryWithTx(tx)
	u.planRepo = newPlanRepositoryWithTx(tx)
	u.userRepo = newUserRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events only after a successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// ChallengeRepository returns the challenge repository for this unit of work
func (u *unitOfWork) ChallengeRepository() service.ChallengeRepository {
	if u.challengeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.challengeRepo
}

// DailyMetricRepository returns the daily metric repository for this unit of work
func (u *unitOfWork) DailyMetricRepository() service.DailyMetricRepository {
	if u.dailyMetricRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.dailyMetricRepo
}

// TradeRepository returns the trade repository for this unit of work
func (u *unitOfWork) TradeRepository() service.TradeRepository {
	if u.tradeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tradeRepo
}

// PlanRepository returns the plan repository for this unit of work
func (u *unitOfWork) PlanRepository() service.PlanRepository {
	if u.planRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.planRepo
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
