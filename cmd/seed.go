package cmd

import (
	"context"
	"fmt"
	"log"

	"tradesense/config"
	"tradesense/database"
	"tradesense/events"
	"tradesense/models"
	"tradesense/repository"
)

// Seed inserts the default challenge plans if they are not already present.
// All inserts share one transaction, so a rerun after a partial failure
// starts from a clean slate. Safe to run repeatedly.
func Seed(ctx context.Context) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	uow := repository.NewUnitOfWorkFactory(db, events.NewBus()).Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, plan := range models.DefaultPlans() {
		existing, err := uow.PlanRepository().GetBySlug(ctx, plan.Slug)
		if err != nil {
			return fmt.Errorf("failed to look up plan %q: %w", plan.Slug, err)
		}
		if existing != nil {
			log.Printf("Plan %q already exists, skipping", plan.Slug)
			continue
		}
		if err := uow.PlanRepository().Create(ctx, plan); err != nil {
			return fmt.Errorf("failed to create plan %q: %w", plan.Slug, err)
		}
		log.Printf("Created plan %q (balance %.0f, price %.0f)", plan.Slug, plan.StartBalance, plan.Price)
	}

	return uow.Commit()
}
