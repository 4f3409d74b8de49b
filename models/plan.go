package models

import (
	"time"
)

// Plan is a purchasable challenge tier
type Plan struct {
	ID           int64     `db:"id"`
	Slug         string    `db:"slug"`
	Price        float64   `db:"price"`
	StartBalance float64   `db:"start_balance"`
	CreatedAt    time.Time `db:"created_at"`
}

// DefaultPlans are seeded on first run: starter, pro, elite
func DefaultPlans() []*Plan {
	return []*Plan{
		{Slug: "starter", Price: 200, StartBalance: 5000},
		{Slug: "pro", Price: 500, StartBalance: 15000},
		{Slug: "elite", Price: 1000, StartBalance: 50000},
	}
}
