package entity

import (
	"encoding/json"
	"sort"
	"time"
)

// NotAvailable is the sentinel rendered for every field the upstream did not
// provide. Presentation code branches on this value, never on field absence.
const NotAvailable = "N/A"

// Metric is an optional numeric value. The zero value is "not available".
type Metric struct {
	Value float64
	Valid bool
}

// Num builds a valid Metric from a raw value.
func Num(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// MarshalJSON renders an invalid metric as null so the field is always
// present in serialized snapshots.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric{Value: v, Valid: true}
	return nil
}

// Candle is one daily OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Snapshot is the normalized view of one ticker at fetch time. Every field is
// always present: strings fall back to NotAvailable, numerics to an invalid
// Metric. MarketCap is stored in raw currency units.
type Snapshot struct {
	Symbol           string    `json:"symbol"`
	CompanyName      string    `json:"company_name"`
	Sector           string    `json:"sector"`
	Exchange         string    `json:"exchange"`
	Country          string    `json:"country"`
	Website          string    `json:"website"`
	CurrentPrice     Metric    `json:"current_price"`
	OpenPrice        Metric    `json:"open_price"`
	HighPrice        Metric    `json:"high_price"`
	LowPrice         Metric    `json:"low_price"`
	PreviousClose    Metric    `json:"previous_close"`
	MarketCap        Metric    `json:"market_cap"`
	TrailingPE       Metric    `json:"trailing_pe"`
	ForwardPE        Metric    `json:"forward_pe"`
	Beta             Metric    `json:"beta"`
	DividendYield    Metric    `json:"dividend_yield"`
	FiftyTwoWeekHigh Metric    `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  Metric    `json:"fifty_two_week_low"`
	PriceHistory     []Candle  `json:"price_history"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// OrNotAvailable substitutes the sentinel for empty profile strings.
func OrNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// NormalizeHistory sorts bars by timestamp ascending and drops duplicate
// timestamps, keeping the first occurrence. History handed to charts and
// indicators must hold this invariant.
func NormalizeHistory(bars []Candle) []Candle {
	if len(bars) == 0 {
		return bars
	}
	out := make([]Candle, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:1]
	for _, b := range out[1:] {
		if b.Time.Equal(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}
