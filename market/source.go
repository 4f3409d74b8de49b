package market

import (
	"context"
	"time"
)

// Quote is a point-in-time price for a symbol
type Quote struct {
	Symbol    string
	Price     float64
	Change    float64
	ChangePct float64
	Currency  string
	Source    string
	Timestamp time.Time
}

// Candle is one bar of a historical price series
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceSource provides current prices for trade execution. Implementations
// are best-effort: they may return simulated data, and callers must not
// assume provenance.
type PriceSource interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetSeries(ctx context.Context, symbol, interval, period string) ([]Candle, error)
}
