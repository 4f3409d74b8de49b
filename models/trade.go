package models

import (
	"time"
)

// TradeSide is the direction of a trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade is an executed order against a challenge. Market orders carry a
// commission and zero Pnl; simulated orders resolve instantly and carry the
// realized Pnl instead. Trades are an append-only ledger; the rule engine
// reads only their count, never their contents (equity already reflects
// trade effects).
type Trade struct {
	ID          int64     `db:"id"`
	ChallengeID int64     `db:"challenge_id"`
	Symbol      string    `db:"symbol"`
	Side        TradeSide `db:"side"`
	Qty         float64   `db:"qty"`
	Price       float64   `db:"price"`
	Commission  float64   `db:"commission"`
	Pnl         float64   `db:"pnl"`
	ExecutedAt  time.Time `db:"executed_at"`
}

// TradeResult is returned to the caller after a trade executes and the
// challenge has been re-evaluated
type TradeResult struct {
	Trade      *Trade
	NewEquity  float64
	Evaluation *EvaluationResult
}
