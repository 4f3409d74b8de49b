package models

import (
	"time"
)

// DailyMetric captures one challenge's equity movement for a single UTC
// calendar day. At most one row exists per (challenge, date).
type DailyMetric struct {
	ID             int64     `db:"id"`
	ChallengeID    int64     `db:"challenge_id"`
	Date           time.Time `db:"date"` // normalized to UTC midnight
	DayStartEquity float64   `db:"day_start_equity"`
	DayEndEquity   float64   `db:"day_end_equity"`
	DayPnl         float64   `db:"day_pnl"`
	CreatedAt      time.Time `db:"created_at"`
}

// MetricDate normalizes a timestamp to the UTC calendar date it falls on
func MetricDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
