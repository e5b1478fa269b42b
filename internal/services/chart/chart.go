// Package chart converts price history into chart-ready candlestick series.
// Snapshots stay pure data; everything here is a free function over them.
package chart

import (
	"github.com/vadiminshakov/stockpair/internal/entity"
)

// Build maps bars one-to-one into a candlestick series, preserving order.
// Empty history yields an empty series, which is valid and distinct from a
// fetch failure; the caller renders a "no data" state.
func Build(symbol string, history []entity.Candle) entity.ChartSeries {
	series := entity.ChartSeries{Symbol: symbol}
	if len(history) == 0 {
		return series
	}
	series.Points = make([]entity.Candle, len(history))
	copy(series.Points, history)
	return series
}

// BuildDegraded synthesizes a one-candle series from the current quote when
// no historical bars are available. The candle carries no directional or time
// information, so the series is flagged Degraded and the UI labels it as a
// quote-only approximation.
func BuildDegraded(snap *entity.Snapshot) entity.ChartSeries {
	series := entity.ChartSeries{Symbol: snap.Symbol, Degraded: true}
	if !snap.OpenPrice.Valid && !snap.CurrentPrice.Valid {
		return series
	}
	series.Points = []entity.Candle{{
		Time:  snap.FetchedAt,
		Open:  snap.OpenPrice.Value,
		High:  snap.HighPrice.Value,
		Low:   snap.LowPrice.Value,
		Close: snap.CurrentPrice.Value,
	}}
	return series
}

// ForSnapshot picks the real history when present and falls back to the
// degraded single-quote candle otherwise.
func ForSnapshot(snap *entity.Snapshot) entity.ChartSeries {
	if snap == nil {
		return entity.ChartSeries{}
	}
	if len(snap.PriceHistory) > 0 {
		return Build(snap.Symbol, snap.PriceHistory)
	}
	return BuildDegraded(snap)
}
