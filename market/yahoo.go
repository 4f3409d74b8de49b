package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// YahooClient fetches quotes from the Yahoo Finance chart endpoint. Any
// failure falls back to the simulator so trade execution never blocks on
// market data availability.
type YahooClient struct {
	baseURL  string
	client   *http.Client
	fallback *Simulator
}

// NewYahooClient creates a price source backed by the Yahoo chart API
func NewYahooClient(baseURL string) *YahooClient {
	return &YahooClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		fallback: NewSimulator(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				Currency           string  `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, interval, rng string) (*chartResponse, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Add("interval", interval)
	q.Add("range", rng)
	req.URL.RawQuery = q.Encode()
	req.Header.Add("User-Agent", userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request failed, http code %v", res.Status)
	}

	var dto chartResponse
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if len(dto.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response contains no result for %s", symbol)
	}

	return &dto, nil
}

// GetQuote fetches the current price and previous close for a symbol,
// substituting a simulated quote when the API is unavailable
func (c *YahooClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	dto, err := c.fetchChart(ctx, symbol, "1d", "2d")
	if err != nil {
		log.WithFields(log.Fields{
			"symbol": symbol,
			"error":  err,
		}).Warn("Quote fetch failed, falling back to simulated price")
		return c.fallback.GetQuote(ctx, symbol)
	}

	meta := dto.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	prevClose := meta.ChartPreviousClose

	change := price - prevClose
	changePct := 0.0
	if prevClose != 0 {
		changePct = change / prevClose * 100
	}

	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	return &Quote{
		Symbol:    symbol,
		Price:     price,
		Change:    change,
		ChangePct: changePct,
		Currency:  currency,
		Source:    "yahoo",
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetSeries fetches a historical candle series, substituting a simulated
// random walk when the API is unavailable
func (c *YahooClient) GetSeries(ctx context.Context, symbol, interval, period string) ([]Candle, error) {
	dto, err := c.fetchChart(ctx, symbol, interval, period)
	if err != nil {
		log.WithFields(log.Fields{
			"symbol": symbol,
			"error":  err,
		}).Warn("Series fetch failed, falling back to simulated series")
		return c.fallback.GetSeries(ctx, symbol, interval, period)
	}

	result := dto.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response contains no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo quirk: individual values can be null, and the per-field
		// arrays are not guaranteed to be as long as the timestamp array
		if i >= len(quote.Open) || i >= len(quote.Close) ||
			quote.Open[i] == nil || quote.Close[i] == nil {
			continue
		}
		candle := Candle{
			Time:  ts,
			Open:  *quote.Open[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.High) && quote.High[i] != nil {
			candle.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			candle.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}
		candles = append(candles, candle)
	}

	return candles, nil
}
