package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"go.uber.org/zap"
)

type marketStub struct {
	quote   any
	profile any
	metrics any
	candles any
	news    any

	metricsStatus int
	candlesStatus int
}

func (s *marketStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("token"))
		write(w, 0, s.quote)
	})
	mux.HandleFunc("/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		write(w, 0, s.profile)
	})
	mux.HandleFunc("/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		write(w, s.metricsStatus, s.metrics)
	})
	mux.HandleFunc("/stock/candle", func(w http.ResponseWriter, r *http.Request) {
		write(w, s.candlesStatus, s.candles)
	})
	mux.HandleFunc("/company-news", func(w http.ResponseWriter, r *http.Request) {
		write(w, 0, s.news)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestMarketClient(t *testing.T, stub *marketStub) *MarketClient {
	t.Helper()
	srv := stub.server(t)
	return NewMarketClient(srv.URL, "test-token", time.Millisecond, 365, zap.NewNop())
}

func fullStub() *marketStub {
	return &marketStub{
		quote: quoteResponse{
			Current: 180.5, High: 182, Low: 178, Open: 179, PreviousClose: 177, Timestamp: 1760000000,
		},
		profile: map[string]any{
			"name":                 "NVIDIA Corp",
			"finnhubIndustry":      "Semiconductors",
			"exchange":             "NASDAQ",
			"country":              "US",
			"weburl":               "https://nvidia.com",
			"marketCapitalization": 4400000.0,
		},
		metrics: map[string]any{
			"metric": map[string]float64{
				"peBasicExclExtraTTM":          55.3,
				"peNormalizedAnnual":           40.1,
				"beta":                         1.7,
				"dividendYieldIndicatedAnnual": 0.03,
				"52WeekHigh":                   195.9,
				"52WeekLow":                    86.6,
			},
		},
		candles: candleResponse{
			Status:     "ok",
			Timestamps: []int64{1759000000, 1759086400, 1759172800},
			Opens:      []float64{170, 172, 174},
			Highs:      []float64{173, 175, 177},
			Lows:       []float64{169, 171, 173},
			Closes:     []float64{172, 174, 176},
			Volumes:    []float64{1e6, 2e6, 3e6},
		},
	}
}

func TestFetchSnapshotFullPayload(t *testing.T) {
	client := newTestMarketClient(t, fullStub())

	snap, err := client.FetchSnapshot(context.Background(), " nvda ")
	require.NoError(t, err)

	assert.Equal(t, "NVDA", snap.Symbol, "symbol is trimmed and uppercased")
	assert.Equal(t, "NVIDIA Corp", snap.CompanyName)
	assert.Equal(t, "Semiconductors", snap.Sector)
	assert.Equal(t, "NASDAQ", snap.Exchange)

	assert.Equal(t, entity.Num(180.5), snap.CurrentPrice)
	assert.Equal(t, entity.Num(177), snap.PreviousClose)

	require.True(t, snap.MarketCap.Valid)
	assert.InDelta(t, 4.4e12, snap.MarketCap.Value, 1, "provider millions normalize to raw units")

	assert.Equal(t, entity.Num(55.3), snap.TrailingPE)
	assert.Equal(t, entity.Num(40.1), snap.ForwardPE)
	assert.Equal(t, entity.Num(1.7), snap.Beta)
	require.True(t, snap.DividendYield.Valid)
	assert.InDelta(t, 0.0003, snap.DividendYield.Value, 1e-9, "annual percent stored as fraction")
	assert.Equal(t, entity.Num(195.9), snap.FiftyTwoWeekHigh)
	assert.Equal(t, entity.Num(86.6), snap.FiftyTwoWeekLow)

	require.Len(t, snap.PriceHistory, 3)
	assert.True(t, snap.PriceHistory[0].Time.Before(snap.PriceHistory[2].Time))
	assert.Equal(t, 176.0, snap.PriceHistory[2].Close)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetchSnapshotUnknownSymbol(t *testing.T) {
	stub := fullStub()
	stub.quote = quoteResponse{} // finnhub answers unknown symbols with zeros, not 404
	client := newTestMarketClient(t, stub)

	_, err := client.FetchSnapshot(context.Background(), "XXXX")

	var notFound *entity.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "XXXX", notFound.Symbol)
}

func TestFetchSnapshotEmptyProfile(t *testing.T) {
	stub := fullStub()
	stub.profile = map[string]any{}
	client := newTestMarketClient(t, stub)

	_, err := client.FetchSnapshot(context.Background(), "NVDA")

	var notFound *entity.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFetchSnapshotMetricsUnavailable(t *testing.T) {
	stub := fullStub()
	stub.metricsStatus = http.StatusForbidden
	client := newTestMarketClient(t, stub)

	snap, err := client.FetchSnapshot(context.Background(), "NVDA")
	require.NoError(t, err, "metrics are not load-bearing")

	assert.False(t, snap.TrailingPE.Valid)
	assert.False(t, snap.Beta.Valid)
	assert.False(t, snap.DividendYield.Valid)
	assert.True(t, snap.CurrentPrice.Valid, "quote fields survive")
}

func TestFetchSnapshotMissingMetricKeys(t *testing.T) {
	stub := fullStub()
	stub.metrics = map[string]any{"metric": map[string]float64{"beta": 1.1}}
	client := newTestMarketClient(t, stub)

	snap, err := client.FetchSnapshot(context.Background(), "NVDA")
	require.NoError(t, err)

	assert.Equal(t, entity.Num(1.1), snap.Beta)
	assert.False(t, snap.TrailingPE.Valid)
	assert.False(t, snap.FiftyTwoWeekHigh.Valid)
}

func TestFetchSnapshotNoCandleData(t *testing.T) {
	stub := fullStub()
	stub.candles = candleResponse{Status: "no_data"}
	client := newTestMarketClient(t, stub)

	snap, err := client.FetchSnapshot(context.Background(), "NVDA")
	require.NoError(t, err, "missing history degrades, never fails the fetch")
	assert.Empty(t, snap.PriceHistory)
}

func TestFetchSnapshotMismatchedCandleArrays(t *testing.T) {
	stub := fullStub()
	stub.candles = candleResponse{
		Status:     "ok",
		Timestamps: []int64{1759000000, 1759086400},
		Opens:      []float64{170},
		Highs:      []float64{173},
		Lows:       []float64{169},
		Closes:     []float64{172},
		Volumes:    []float64{1e6},
	}
	client := newTestMarketClient(t, stub)

	snap, err := client.FetchSnapshot(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Empty(t, snap.PriceHistory)
}

func TestFetchSnapshotUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewMarketClient(srv.URL, "token", time.Millisecond, 365, zap.NewNop())

	_, err := client.FetchSnapshot(context.Background(), "NVDA")

	var upstream *entity.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "quote", upstream.Op)
}

func TestFetchNewsWindowAndLimit(t *testing.T) {
	now := time.Now()
	var raw []newsItemResponse
	for i := 0; i < 8; i++ {
		raw = append(raw, newsItemResponse{
			Datetime: now.Add(-time.Duration(i) * 24 * time.Hour).Unix(),
			Headline: fmt.Sprintf("headline %d", i),
			Source:   "wire",
		})
	}
	// one stale article outside the 7-day window
	raw = append(raw, newsItemResponse{Datetime: now.AddDate(0, 0, -30).Unix(), Headline: "stale"})

	stub := fullStub()
	stub.news = raw
	client := newTestMarketClient(t, stub)

	items, err := client.FetchNews(context.Background(), "nvda", 7, 5)
	require.NoError(t, err)

	require.Len(t, items, 5, "limit caps the result")
	assert.Equal(t, "headline 0", items[0].Headline, "provider order is preserved")
	for _, item := range items {
		assert.NotEqual(t, "stale", item.Headline)
	}
}

func TestFetchNewsEmpty(t *testing.T) {
	stub := fullStub()
	stub.news = []newsItemResponse{}
	client := newTestMarketClient(t, stub)

	items, err := client.FetchNews(context.Background(), "NVDA", 7, 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestThrottleRespectsContext(t *testing.T) {
	client := NewMarketClient("http://unused", "token", time.Hour, 365, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.throttle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
