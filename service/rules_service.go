package service

import (
	"context"
	"fmt"
	"time"

	"tradesense/config"
	"tradesense/events"
	"tradesense/models"

	log "github.com/sirupsen/logrus"
)

type rulesService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRulesService creates a new rules evaluation service
func NewRulesService(uowFactory UnitOfWorkFactory) RulesService {
	return &rulesService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Evaluate applies the challenge rules once. The caller must have already
// applied the triggering trade's effect to the challenge's equity.
//
// Rules fire in fixed priority order with inclusive thresholds:
//  1. total loss:  equity <= startBalance * (1 - maxTotalLossPct)
//  2. daily loss:  equity <= dayStartEquity * (1 - maxDailyLossPct)
//  3. profit target: equity >= startBalance * (1 + profitTargetPct)
//
// The whole evaluation, including the day rollover, runs in one transaction:
// a status transition and its timestamp are committed together or not at all.
func (s *rulesService) Evaluate(ctx context.Context, challengeID int64) (*models.EvaluationResult, error) {
	cfg := config.Get()
	now := s.now().UTC()
	today := models.MetricDate(now)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Row lock serializes evaluations for the same challenge
	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		// Missing challenge is a no-op, caller decides whether to surface it
		return &models.EvaluationResult{
			ChallengeID: challengeID,
			Status:      models.ChallengeStatusActive,
			Outcome:     models.OutcomeActive,
		}, nil
	}
	if !challenge.IsActive() {
		// Terminal challenges are never re-evaluated or mutated
		return &models.EvaluationResult{
			ChallengeID: challenge.ID,
			Status:      challenge.Status,
			Outcome:     challenge.TerminalOutcome(),
			Equity:      challenge.Equity,
		}, nil
	}

	metric, err := s.rollover(ctx, uow, challenge, today)
	if err != nil {
		return nil, err
	}

	result := &models.EvaluationResult{
		ChallengeID:    challenge.ID,
		Status:         models.ChallengeStatusActive,
		Outcome:        models.OutcomeActive,
		Equity:         challenge.Equity,
		DayStartEquity: metric.DayStartEquity,
	}

	switch {
	case challenge.Equity <= challenge.MaxLossLevel(cfg.MaxTotalLossPct):
		result.Outcome = models.OutcomeFailedTotalLoss
	case challenge.Equity <= models.DailyLossLevel(metric.DayStartEquity, cfg.MaxDailyLossPct):
		result.Outcome = models.OutcomeFailedDailyLoss
	case challenge.Equity >= challenge.ProfitTarget(cfg.ProfitTargetPct):
		result.Outcome = models.OutcomePassed
	}

	switch result.Outcome {
	case models.OutcomeFailedTotalLoss, models.OutcomeFailedDailyLoss:
		reason := string(result.Outcome)
		challenge.Status = models.ChallengeStatusFailed
		challenge.StatusReason = &reason
		challenge.FailedAt = &now
		result.Status = models.ChallengeStatusFailed

		if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
			return nil, fmt.Errorf("failed to persist failed challenge: %w", err)
		}
		uow.EventBus().Publish(events.ChallengeFailedEvent{
			ChallengeID: challenge.ID,
			UserID:      challenge.UserID,
			Outcome:     result.Outcome,
			Equity:      challenge.Equity,
			FailedAt:    now,
		})

	case models.OutcomePassed:
		reason := string(models.OutcomePassed)
		challenge.Status = models.ChallengeStatusPassed
		challenge.StatusReason = &reason
		challenge.PassedAt = &now
		result.Status = models.ChallengeStatusPassed

		if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
			return nil, fmt.Errorf("failed to persist passed challenge: %w", err)
		}
		uow.EventBus().Publish(events.ChallengePassedEvent{
			ChallengeID: challenge.ID,
			UserID:      challenge.UserID,
			Equity:      challenge.Equity,
			PassedAt:    now,
		})

	default:
		dayPnl := challenge.Equity - metric.DayStartEquity
		if err := uow.DailyMetricRepository().UpdateClose(ctx, metric.ID, challenge.Equity, dayPnl); err != nil {
			return nil, fmt.Errorf("failed to update daily metric: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if result.Outcome != models.OutcomeActive {
		log.WithFields(log.Fields{
			"challengeID": challenge.ID,
			"outcome":     result.Outcome,
			"equity":      challenge.Equity,
		}).Info("Challenge reached terminal state")
	}

	return result, nil
}

// rollover ensures a DailyMetric exists for today and that the challenge's
// mirrored daily-start fields agree with it. For the first evaluation of a
// new day the opening equity is resolved in priority order:
//  1. yesterday's closing equity,
//  2. the start balance when no trade has ever executed,
//  3. the current equity when trades exist but the metric history has a gap.
//
// The gap fallback cannot see a loss that happened entirely within the gap;
// that approximation is deliberate and matches the lazy rollover model.
func (s *rulesService) rollover(ctx context.Context, uow UnitOfWork, challenge *models.Challenge, today time.Time) (*models.DailyMetric, error) {
	metric, err := uow.DailyMetricRepository().GetByDate(ctx, challenge.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metric: %w", err)
	}
	if metric != nil {
		return metric, nil
	}

	var dayStart float64
	prior, err := uow.DailyMetricRepository().GetLatestBefore(ctx, challenge.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get prior daily metric: %w", err)
	}

	// Only a contiguous metric carries the day forward; anything older is a
	// gap and falls through to the fallbacks below. The close is always
	// maintained (written on create, refreshed on every evaluation), so it
	// can be trusted as-is even when it is zero.
	yesterday := today.AddDate(0, 0, -1)
	switch {
	case prior != nil && prior.Date.Equal(yesterday):
		dayStart = prior.DayEndEquity
	default:
		tradeCount, err := uow.TradeRepository().CountByChallenge(ctx, challenge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count trades: %w", err)
		}
		if tradeCount == 0 {
			// Fresh account: measure the day against the untouched balance
			dayStart = challenge.StartBalance
		} else {
			dayStart = challenge.Equity
		}
	}

	metric = &models.DailyMetric{
		ChallengeID:    challenge.ID,
		Date:           today,
		DayStartEquity: dayStart,
		DayEndEquity:   challenge.Equity,
		DayPnl:         challenge.Equity - dayStart,
	}
	if err := uow.DailyMetricRepository().Create(ctx, metric); err != nil {
		return nil, fmt.Errorf("failed to create daily metric: %w", err)
	}

	// Mirror the opening value on the challenge so reads don't need a join.
	// Updated in the same transaction as the metric so the two cannot diverge.
	challenge.DailyStartEquity = &metric.DayStartEquity
	challenge.LastDailyReset = s.now().UTC()
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge rollover state: %w", err)
	}

	uow.EventBus().Publish(events.DailyRolloverEvent{
		ChallengeID:    challenge.ID,
		Date:           today,
		DayStartEquity: metric.DayStartEquity,
	})

	return metric, nil
}
