package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"go.uber.org/zap"
)

const (
	defaultMarketAPIURL = "https://finnhub.io/api/v1"
	defaultCallDelay    = 500 * time.Millisecond
	defaultHistoryDays  = 365
)

// MarketClient talks to a finnhub-style market-data REST API. It is stateless:
// every call returns fresh copies and no references are retained.
//
// The provider enforces a strict rate limit, so the client sleeps callDelay
// before every upstream call. A full snapshot issues four calls (quote,
// profile, metrics, candles).
type MarketClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	callDelay   time.Duration
	historyDays int
	logger      *zap.Logger
}

// NewMarketClient creates a market-data client. Zero callDelay falls back to
// the default 500ms; zero historyDays to one year.
func NewMarketClient(baseURL, apiKey string, callDelay time.Duration, historyDays int, logger *zap.Logger) *MarketClient {
	if baseURL == "" {
		baseURL = defaultMarketAPIURL
	}
	if callDelay == 0 {
		callDelay = defaultCallDelay
	}
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	return &MarketClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		callDelay:   callDelay,
		historyDays: historyDays,
		logger:      logger,
	}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// profileRaw keeps the distinction between "field absent" and "field zero"
// for the market cap, which decides sentinel vs. value.
type profileRaw struct {
	Name         string   `json:"name"`
	Industry     string   `json:"finnhubIndustry"`
	Exchange     string   `json:"exchange"`
	Country      string   `json:"country"`
	Website      string   `json:"weburl"`
	MarketCapMln *float64 `json:"marketCapitalization"`
}

type metricsResponse struct {
	Metric map[string]*float64 `json:"metric"`
}

type candleResponse struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Opens      []float64 `json:"o"`
	Highs      []float64 `json:"h"`
	Lows       []float64 `json:"l"`
	Closes     []float64 `json:"c"`
	Volumes    []float64 `json:"v"`
}

// Extended-financials keys for the provider tier this client targets. Keys
// missing from the payload resolve to the sentinel.
const (
	metricTrailingPE    = "peBasicExclExtraTTM"
	metricForwardPE     = "peNormalizedAnnual"
	metricBeta          = "beta"
	metricDividendYield = "dividendYieldIndicatedAnnual"
	metric52WeekHigh    = "52WeekHigh"
	metric52WeekLow     = "52WeekLow"
)

// FetchSnapshot merges quote, profile, extended financials and one year of
// daily candles into a Snapshot. Quote and profile are load-bearing: an empty
// payload for either fails the whole fetch with NotFoundError. Metrics and
// candles degrade to sentinels / empty history instead.
func (c *MarketClient) FetchSnapshot(ctx context.Context, symbol string) (*entity.Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &entity.NotFoundError{Symbol: symbol}
	}

	var quote quoteResponse
	if err := c.get(ctx, "quote", url.Values{"symbol": {symbol}}, &quote); err != nil {
		return nil, err
	}
	// finnhub answers unknown symbols with an all-zero quote instead of 404
	if quote.Timestamp == 0 && quote.Current == 0 && quote.PreviousClose == 0 {
		return nil, &entity.NotFoundError{Symbol: symbol}
	}

	var profile profileRaw
	if err := c.get(ctx, "stock/profile2", url.Values{"symbol": {symbol}}, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, &entity.NotFoundError{Symbol: symbol}
	}

	snap := &entity.Snapshot{
		Symbol:        symbol,
		CompanyName:   entity.OrNotAvailable(profile.Name),
		Sector:        entity.OrNotAvailable(profile.Industry),
		Exchange:      entity.OrNotAvailable(profile.Exchange),
		Country:       entity.OrNotAvailable(profile.Country),
		Website:       entity.OrNotAvailable(profile.Website),
		CurrentPrice:  entity.Num(quote.Current),
		OpenPrice:     entity.Num(quote.Open),
		HighPrice:     entity.Num(quote.High),
		LowPrice:      entity.Num(quote.Low),
		PreviousClose: entity.Num(quote.PreviousClose),
		FetchedAt:     time.Now(),
	}
	if profile.MarketCapMln != nil {
		// provider reports market cap in millions, normalize to raw units
		snap.MarketCap = entity.Num(*profile.MarketCapMln * 1e6)
	}

	var metrics metricsResponse
	if err := c.get(ctx, "stock/metric", url.Values{"symbol": {symbol}, "metric": {"all"}}, &metrics); err != nil {
		c.logger.Warn("extended financials unavailable, using sentinels",
			zap.String("symbol", symbol), zap.Error(err))
	} else {
		snap.TrailingPE = metricValue(metrics.Metric, metricTrailingPE)
		snap.ForwardPE = metricValue(metrics.Metric, metricForwardPE)
		snap.Beta = metricValue(metrics.Metric, metricBeta)
		snap.FiftyTwoWeekHigh = metricValue(metrics.Metric, metric52WeekHigh)
		snap.FiftyTwoWeekLow = metricValue(metrics.Metric, metric52WeekLow)
		if dy := metricValue(metrics.Metric, metricDividendYield); dy.Valid {
			// provider reports an annual percent, keep it as a fraction
			snap.DividendYield = entity.Num(dy.Value / 100)
		}
	}

	history, err := c.fetchCandles(ctx, symbol)
	if err != nil {
		c.logger.Warn("price history unavailable, snapshot degrades to quote-only chart",
			zap.String("symbol", symbol), zap.Error(err))
		history = nil
	}
	snap.PriceHistory = entity.NormalizeHistory(history)

	return snap, nil
}

func (c *MarketClient) fetchCandles(ctx context.Context, symbol string) ([]entity.Candle, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -c.historyDays)

	var candles candleResponse
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprintf("%d", from.Unix())},
		"to":         {fmt.Sprintf("%d", to.Unix())},
	}
	if err := c.get(ctx, "stock/candle", params, &candles); err != nil {
		return nil, err
	}
	if candles.Status != "ok" {
		return nil, errors.Errorf("candle status %q", candles.Status)
	}
	if len(candles.Timestamps) != len(candles.Opens) ||
		len(candles.Timestamps) != len(candles.Highs) ||
		len(candles.Timestamps) != len(candles.Lows) ||
		len(candles.Timestamps) != len(candles.Closes) ||
		len(candles.Timestamps) != len(candles.Volumes) {
		return nil, errors.New("candle arrays have mismatched lengths")
	}

	bars := make([]entity.Candle, 0, len(candles.Timestamps))
	for i, ts := range candles.Timestamps {
		bars = append(bars, entity.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   candles.Opens[i],
			High:   candles.Highs[i],
			Low:    candles.Lows[i],
			Close:  candles.Closes[i],
			Volume: candles.Volumes[i],
		})
	}
	return bars, nil
}

type newsItemResponse struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// FetchNews returns up to limit articles published within the trailing
// windowDays, newest first. No articles is an empty slice, not an error.
func (c *MarketClient) FetchNews(ctx context.Context, symbol string, windowDays, limit int) ([]entity.NewsItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if windowDays <= 0 {
		windowDays = 7
	}
	if limit <= 0 {
		limit = 5
	}

	to := time.Now()
	from := to.AddDate(0, 0, -windowDays)
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	}

	var raw []newsItemResponse
	if err := c.get(ctx, "company-news", params, &raw); err != nil {
		return nil, err
	}

	items := make([]entity.NewsItem, 0, limit)
	for _, n := range raw {
		published := time.Unix(n.Datetime, 0).UTC()
		if published.Before(from) {
			continue
		}
		items = append(items, entity.NewsItem{
			Time:     published,
			Headline: n.Headline,
			Source:   n.Source,
			Summary:  n.Summary,
			URL:      n.URL,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// get sleeps the rate-limit delay, then issues one GET and decodes the JSON
// body into out. Transport and HTTP-status failures come back as UpstreamError.
func (c *MarketClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	params.Set("token", c.apiKey)
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &entity.UpstreamError{Op: endpoint, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.UpstreamError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entity.UpstreamError{Op: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &entity.UpstreamError{
			Op:  endpoint,
			Err: errors.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &entity.UpstreamError{Op: endpoint, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func (c *MarketClient) throttle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.callDelay):
		return nil
	}
}

func metricValue(metrics map[string]*float64, key string) entity.Metric {
	if v, ok := metrics[key]; ok && v != nil {
		return entity.Num(*v)
	}
	return entity.Metric{}
}
