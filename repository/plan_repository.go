package repository

import (
	"context"
	"fmt"

	"tradesense/database"
	"tradesense/models"

	"github.com/jackc/pgx/v5"
)

// PlanRepository implements the PlanRepository interface
type PlanRepository struct {
	q queryable
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{q: db.Pool}
}

// newPlanRepositoryWithTx creates a new plan repository with a transaction
func newPlanRepositoryWithTx(tx queryable) *PlanRepository {
	return &PlanRepository{q: tx}
}

// Create inserts a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (slug, price, start_balance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, plan.Slug, plan.Price, plan.StartBalance).
		Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan %q: %w", plan.Slug, err)
	}

	return nil
}

// GetBySlug retrieves a plan by its slug
func (r *PlanRepository) GetBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	query := `
		SELECT id, slug, price, start_balance, created_at
		FROM plans
		WHERE slug = $1
	`

	var plan models.Plan
	err := r.q.QueryRow(ctx, query, slug).Scan(
		&plan.ID,
		&plan.Slug,
		&plan.Price,
		&plan.StartBalance,
		&plan.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %q: %w", slug, err)
	}

	return &plan, nil
}

// GetAll returns all plans
func (r *PlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT id, slug, price, start_balance, created_at
		FROM plans
		ORDER BY start_balance
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Slug, &p.Price, &p.StartBalance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan rows: %w", err)
	}

	return plans, nil
}
