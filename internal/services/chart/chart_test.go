package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/stockpair/internal/entity"
)

func history(n int) []entity.Candle {
	bars := make([]entity.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = entity.Candle{
			Time:  base.AddDate(0, 0, i),
			Open:  100 + float64(i),
			High:  101 + float64(i),
			Low:   99 + float64(i),
			Close: 100.5 + float64(i),
		}
	}
	return bars
}

func TestBuildMapsBarsOneToOne(t *testing.T) {
	bars := history(252)

	series := Build("NVDA", bars)

	assert.Equal(t, "NVDA", series.Symbol)
	assert.False(t, series.Degraded)
	require.Len(t, series.Points, 252)
	assert.Equal(t, bars[0], series.Points[0])
	assert.Equal(t, bars[251], series.Points[251])
}

func TestBuildCopiesHistory(t *testing.T) {
	bars := history(3)
	series := Build("NVDA", bars)

	bars[0].Close = -1
	assert.NotEqual(t, -1.0, series.Points[0].Close)
}

func TestBuildEmptyHistory(t *testing.T) {
	series := Build("NVDA", nil)
	assert.True(t, series.Empty())
	assert.False(t, series.Degraded)
}

func TestBuildDegraded(t *testing.T) {
	t.Run("quote synthesizes one flagged candle", func(t *testing.T) {
		snap := &entity.Snapshot{
			Symbol:       "MSFT",
			CurrentPrice: entity.Num(420),
			OpenPrice:    entity.Num(415),
			HighPrice:    entity.Num(422),
			LowPrice:     entity.Num(414),
			FetchedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		series := BuildDegraded(snap)

		assert.True(t, series.Degraded)
		require.Len(t, series.Points, 1)
		assert.Equal(t, 415.0, series.Points[0].Open)
		assert.Equal(t, 420.0, series.Points[0].Close)
		assert.Equal(t, snap.FetchedAt, series.Points[0].Time)
	})

	t.Run("no usable quote yields empty degraded series", func(t *testing.T) {
		series := BuildDegraded(&entity.Snapshot{Symbol: "MSFT"})
		assert.True(t, series.Degraded)
		assert.True(t, series.Empty())
	})
}

func TestForSnapshot(t *testing.T) {
	t.Run("prefers real history", func(t *testing.T) {
		snap := &entity.Snapshot{Symbol: "NVDA", PriceHistory: history(5), CurrentPrice: entity.Num(1)}
		series := ForSnapshot(snap)
		assert.False(t, series.Degraded)
		assert.Len(t, series.Points, 5)
	})

	t.Run("falls back to degraded mode", func(t *testing.T) {
		snap := &entity.Snapshot{Symbol: "NVDA", CurrentPrice: entity.Num(100)}
		series := ForSnapshot(snap)
		assert.True(t, series.Degraded)
		assert.Len(t, series.Points, 1)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		assert.True(t, ForSnapshot(nil).Empty())
	})
}
