package service

import (
	"context"
	"fmt"
	"time"

	"tradesense/config"
	"tradesense/models"
)

type challengeService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewChallengeService creates a new challenge lifecycle service
func NewChallengeService(uowFactory UnitOfWorkFactory) ChallengeService {
	return &challengeService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (s *challengeService) StartChallenge(ctx context.Context, userID int64, planSlug string) (*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	plan, err := uow.PlanRepository().GetBySlug(ctx, planSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %q not found", planSlug)
	}

	// One active challenge per user at a time
	existing, err := uow.ChallengeRepository().GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active challenge: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user already has an active challenge (id %d)", existing.ID)
	}

	challenge := &models.Challenge{
		UserID:       userID,
		PlanID:       plan.ID,
		StartBalance: plan.StartBalance,
		Equity:       plan.StartBalance,
		Status:       models.ChallengeStatusActive,
	}
	if err := uow.ChallengeRepository().Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return challenge, nil
}

func (s *challengeService) GetActiveChallenge(ctx context.Context, userID int64) (*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active challenge: %w", err)
	}
	if challenge == nil {
		// Fall back to the most recent challenge even if it is decided
		challenge, err = uow.ChallengeRepository().GetLatestByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest challenge: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return challenge, nil
}

func (s *challengeService) GetChallengeDetail(ctx context.Context, userID, challengeID int64) (*models.ChallengeDetail, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil || challenge.UserID != userID {
		return nil, fmt.Errorf("challenge not found")
	}

	// The daily loss level is anchored to today's opening equity; before the
	// first evaluation of the day it falls back to the current equity
	dayStart := challenge.Equity
	today := models.MetricDate(s.now().UTC())
	metric, err := uow.DailyMetricRepository().GetByDate(ctx, challengeID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metric: %w", err)
	}
	if metric != nil {
		dayStart = metric.DayStartEquity
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.ChallengeDetail{
		Challenge: challenge,
		Targets: models.ChallengeTargets{
			ProfitTarget:   challenge.ProfitTarget(cfg.ProfitTargetPct),
			MaxLossLevel:   challenge.MaxLossLevel(cfg.MaxTotalLossPct),
			DailyLossLevel: models.DailyLossLevel(dayStart, cfg.MaxDailyLossPct),
		},
	}, nil
}
