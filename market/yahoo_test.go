package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartJSON(price, prevClose float64) string {
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {
					"regularMarketPrice": %g,
					"chartPreviousClose": %g,
					"currency": "USD"
				},
				"timestamp": [1700000000, 1700003600, 1700007200],
				"indicators": {
					"quote": [{
						"open":   [100.0, 101.0, null],
						"high":   [102.0, 103.0, null],
						"low":    [99.0, 100.5, null],
						"close":  [101.0, 102.5, null],
						"volume": [1000, 2000, null]
					}]
				}
			}]
		}
	}`, price, prevClose)
}

func TestYahooClient_GetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2d", r.URL.Query().Get("range"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, chartJSON(102.5, 100.0))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL)
	quote, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 102.5, quote.Price)
	assert.Equal(t, "yahoo", quote.Source)
	assert.InDelta(t, 2.5, quote.Change, 1e-9)
	assert.InDelta(t, 2.5, quote.ChangePct, 1e-9)
	assert.Equal(t, "USD", quote.Currency)
}

func TestYahooClient_GetQuote_FallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewYahooClient(server.URL)
	quote, err := client.GetQuote(context.Background(), "BTC-USD")
	require.NoError(t, err)

	assert.Equal(t, "simulated", quote.Source)
	assert.Equal(t, 92000.0, quote.Price)
}

func TestYahooClient_GetQuote_FallsBackOnEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": []}}`)
	}))
	defer server.Close()

	client := NewYahooClient(server.URL)
	quote, err := client.GetQuote(context.Background(), "ETH-USD")
	require.NoError(t, err)
	assert.Equal(t, "simulated", quote.Source)
}

func TestYahooClient_GetQuote_FallsBackWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewYahooClient(server.URL)
	quote, err := client.GetQuote(context.Background(), "SOMETHING")
	require.NoError(t, err)
	assert.Equal(t, "simulated", quote.Source)
}

func TestYahooClient_GetSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/MSFT", r.URL.Path)
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON(102.5, 100.0))
	}))
	defer server.Close()

	client := NewYahooClient(server.URL)
	candles, err := client.GetSeries(context.Background(), "MSFT", "1h", "1mo")
	require.NoError(t, err)

	// The third bar is all nulls and must be skipped
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000), candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, int64(1000), candles[0].Volume)
	assert.Equal(t, 102.5, candles[1].Close)
}

func TestYahooClient_GetSeries_RaggedPayload(t *testing.T) {
	// Field arrays shorter than the timestamp array must not be indexed
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"meta": {
						"regularMarketPrice": 102.5,
						"chartPreviousClose": 100.0,
						"currency": "USD"
					},
					"timestamp": [1700000000, 1700003600, 1700007200],
					"indicators": {
						"quote": [{
							"open":   [100.0, 101.0, 102.0],
							"high":   [102.0],
							"low":    [],
							"close":  [101.0, 102.5],
							"volume": [1000]
						}]
					}
				}]
			}
		}`)
	}))
	defer server.Close()

	client := NewYahooClient(server.URL)
	candles, err := client.GetSeries(context.Background(), "MSFT", "1h", "1mo")
	require.NoError(t, err)

	// Only the bars with both open and close survive; missing high/low/volume
	// entries are left at zero
	require.Len(t, candles, 2)
	assert.Equal(t, 102.0, candles[0].High)
	assert.Equal(t, int64(1000), candles[0].Volume)
	assert.Equal(t, 102.5, candles[1].Close)
	assert.Zero(t, candles[1].High)
	assert.Zero(t, candles[1].Volume)
}
