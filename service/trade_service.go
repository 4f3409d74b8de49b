package service

import (
	"context"
	"fmt"
	"math/rand"

	"tradesense/config"
	"tradesense/events"
	"tradesense/market"
	"tradesense/models"

	log "github.com/sirupsen/logrus"
)

// Simulated execution model: 55% win rate, wins gain 1-4% of equity,
// losses cost 1-3%
const (
	simWinRate    = 0.55
	simMinWinPct  = 0.01
	simMaxWinPct  = 0.04
	simMinLossPct = 0.01
	simMaxLossPct = 0.03
)

func simulatedPnl(equity float64) float64 {
	if rand.Float64() < simWinRate {
		return equity * (simMinWinPct + rand.Float64()*(simMaxWinPct-simMinWinPct))
	}
	return -equity * (simMinLossPct + rand.Float64()*(simMaxLossPct-simMinLossPct))
}

type tradeService struct {
	uowFactory UnitOfWorkFactory
	prices     market.PriceSource
	rules      RulesService
	pnl        func(equity float64) float64
}

// NewTradeService creates a new trade execution service
func NewTradeService(uowFactory UnitOfWorkFactory, prices market.PriceSource, rules RulesService) TradeService {
	return &tradeService{
		uowFactory: uowFactory,
		prices:     prices,
		rules:      rules,
		pnl:        simulatedPnl,
	}
}

func (s *tradeService) ExecuteTrade(ctx context.Context, userID, challengeID int64, symbol string, side models.TradeSide, qty float64) (*models.TradeResult, error) {
	if side != models.TradeSideBuy && side != models.TradeSideSell {
		return nil, fmt.Errorf("side must be %q or %q", models.TradeSideBuy, models.TradeSideSell)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	// Price retrieval happens before the transaction; the engine never
	// blocks on network I/O while holding locks
	quote, err := s.prices.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get market price for %s: %w", symbol, err)
	}

	cfg := config.Get()
	commission := quote.Price * qty * cfg.CommissionRate

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil || challenge.UserID != userID {
		return nil, fmt.Errorf("challenge not found")
	}
	if !challenge.IsActive() {
		return nil, fmt.Errorf("challenge is %s", challenge.Status)
	}

	trade := &models.Trade{
		ChallengeID: challenge.ID,
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		Price:       quote.Price,
		Commission:  commission,
	}
	if err := uow.TradeRepository().Create(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade record: %w", err)
	}

	challenge.Equity -= commission
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge equity: %w", err)
	}

	uow.EventBus().Publish(events.TradeExecutedEvent{
		ChallengeID: challenge.ID,
		TradeID:     trade.ID,
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		Price:       quote.Price,
		Commission:  commission,
		NewEquity:   challenge.Equity,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"challengeID": challenge.ID,
		"symbol":      symbol,
		"side":        side,
		"price":       quote.Price,
		"source":      quote.Source,
	}).Info("Trade executed")

	// Exactly one evaluation per trade, after the equity change is durable
	evaluation, err := s.rules.Evaluate(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate challenge: %w", err)
	}

	return &models.TradeResult{
		Trade:      trade,
		NewEquity:  challenge.Equity,
		Evaluation: evaluation,
	}, nil
}

// SimulateTrade resolves an order instantly: a bounded random PnL is applied
// to the challenge's equity, the trade is recorded with the realized PnL and
// zero commission, then the rules run exactly once on the new equity.
func (s *tradeService) SimulateTrade(ctx context.Context, userID, challengeID int64, symbol string, side models.TradeSide) (*models.TradeResult, error) {
	if side != models.TradeSideBuy && side != models.TradeSideSell {
		return nil, fmt.Errorf("side must be %q or %q", models.TradeSideBuy, models.TradeSideSell)
	}

	// The fill price is informational only; the PnL model drives equity
	quote, err := s.prices.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get market price for %s: %w", symbol, err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil || challenge.UserID != userID {
		return nil, fmt.Errorf("challenge not found")
	}
	if !challenge.IsActive() {
		return nil, fmt.Errorf("challenge is %s", challenge.Status)
	}

	pnl := s.pnl(challenge.Equity)

	trade := &models.Trade{
		ChallengeID: challenge.ID,
		Symbol:      symbol,
		Side:        side,
		Qty:         1,
		Price:       quote.Price,
		Pnl:         pnl,
	}
	if err := uow.TradeRepository().Create(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade record: %w", err)
	}

	challenge.Equity += pnl
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge equity: %w", err)
	}

	uow.EventBus().Publish(events.TradeExecutedEvent{
		ChallengeID: challenge.ID,
		TradeID:     trade.ID,
		Symbol:      symbol,
		Side:        side,
		Qty:         1,
		Price:       quote.Price,
		Pnl:         pnl,
		NewEquity:   challenge.Equity,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"challengeID": challenge.ID,
		"symbol":      symbol,
		"side":        side,
		"pnl":         pnl,
		"newEquity":   challenge.Equity,
	}).Info("Simulated trade resolved")

	// Exactly one evaluation per trade, after the equity change is durable
	evaluation, err := s.rules.Evaluate(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate challenge: %w", err)
	}

	return &models.TradeResult{
		Trade:      trade,
		NewEquity:  challenge.Equity,
		Evaluation: evaluation,
	}, nil
}

func (s *tradeService) GetTrades(ctx context.Context, userID, challengeID int64, limit int) ([]*models.Trade, error) {
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

	trades, err := uow.TradeRepository().GetByChallenge(ctx, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return trades, nil
}
