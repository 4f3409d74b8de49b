package models

import (
	"time"
)

// ChallengeStatus represents the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeStatusActive ChallengeStatus = "active"
	ChallengeStatusPassed ChallengeStatus = "passed"
	ChallengeStatusFailed ChallengeStatus = "failed"
)

// EvaluationOutcome is the result of a single rule evaluation
type EvaluationOutcome string

const (
	OutcomeActive          EvaluationOutcome = "active"
	OutcomeFailedTotalLoss EvaluationOutcome = "failed_total_loss"
	OutcomeFailedDailyLoss EvaluationOutcome = "failed_daily_loss"
	OutcomePassed          EvaluationOutcome = "passed"
)

// Default rule percentages. Overridable via config.
const (
	DefaultMaxTotalLossPct = 0.10
	DefaultMaxDailyLossPct = 0.05
	DefaultProfitTargetPct = 0.10
)

// Challenge represents a funded-trading challenge account
type Challenge struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	PlanID           int64           `db:"plan_id"`
	StartBalance     float64         `db:"start_balance"`
	Equity           float64         `db:"equity"`
	DailyStartEquity *float64        `db:"daily_start_equity"` // nil until the first evaluation
	LastDailyReset   time.Time       `db:"last_daily_reset"`
	Status           ChallengeStatus `db:"status"`
	StatusReason     *string         `db:"status_reason"`
	CreatedAt        time.Time       `db:"created_at"`
	PassedAt         *time.Time      `db:"passed_at"`
	FailedAt         *time.Time      `db:"failed_at"`
}

// IsActive checks if the challenge can still be traded and evaluated
func (c *Challenge) IsActive() bool {
	return c.Status == ChallengeStatusActive
}

// ProfitTarget returns the equity level at which the challenge passes
func (c *Challenge) ProfitTarget(targetPct float64) float64 {
	return c.StartBalance * (1 + targetPct)
}

// MaxLossLevel returns the equity level at which the total loss rule fires
func (c *Challenge) MaxLossLevel(maxLossPct float64) float64 {
	return c.StartBalance * (1 - maxLossPct)
}

// DailyLossLevel returns the equity level at which the daily loss rule fires,
// given the opening equity of the current day
func DailyLossLevel(dayStartEquity, dailyLossPct float64) float64 {
	return dayStartEquity * (1 - dailyLossPct)
}

// TerminalOutcome maps a stored status to the outcome reported for repeat
// evaluations of an already-decided challenge
func (c *Challenge) TerminalOutcome() EvaluationOutcome {
	switch c.Status {
	case ChallengeStatusPassed:
		return OutcomePassed
	case ChallengeStatusFailed:
		if c.StatusReason != nil {
			return EvaluationOutcome(*c.StatusReason)
		}
		return OutcomeFailedTotalLoss
	default:
		return OutcomeActive
	}
}

// EvaluationResult is the outcome of one rule evaluation pass
type EvaluationResult struct {
	ChallengeID    int64
	Status         ChallengeStatus
	Outcome        EvaluationOutcome
	Equity         float64
	DayStartEquity float64
}

// ChallengeTargets are the equity levels the rules fire at, derived for display
type ChallengeTargets struct {
	ProfitTarget   float64
	MaxLossLevel   float64
	DailyLossLevel float64
}

// ChallengeDetail is a challenge together with its derived rule levels
type ChallengeDetail struct {
	Challenge *Challenge
	Targets   ChallengeTargets
}
