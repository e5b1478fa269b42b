// Package indicators computes a small technical summary from daily price
// history using the cinar/indicator library.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stockpair/internal/entity"
)

// MinBars is the minimum history length required for the full summary.
const MinBars = 50

// Summary holds the latest values of the computed indicators.
type Summary struct {
	SMA20 decimal.Decimal
	SMA50 decimal.Decimal
	RSI14 decimal.Decimal
}

// Compute calculates SMA20, SMA50 and RSI14 over the closes of the given
// history and returns the most recent value of each.
func Compute(history []entity.Candle) (*Summary, error) {
	if len(history) < MinBars {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", MinBars, len(history))
	}

	closes := make([]float64, len(history))
	for i, bar := range history {
		closes[i] = bar.Close
	}

	sma20, err := lastValue(trend.NewSmaWithPeriod[float64](20).Compute(helper.SliceToChan(closes)))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate SMA20: %w", err)
	}

	sma50, err := lastValue(trend.NewSmaWithPeriod[float64](50).Compute(helper.SliceToChan(closes)))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate SMA50: %w", err)
	}

	rsi14, err := lastValue(momentum.NewRsiWithPeriod[float64](14).Compute(helper.SliceToChan(closes)))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate RSI14: %w", err)
	}

	return &Summary{
		SMA20: decimal.NewFromFloat(sma20),
		SMA50: decimal.NewFromFloat(sma50),
		RSI14: decimal.NewFromFloat(rsi14),
	}, nil
}

// lastValue drains an indicator output channel and returns its final value.
// RSI over a flat series divides zero by zero, so NaN and Inf are rejected
// here instead of reaching decimal conversion.
func lastValue(ch <-chan float64) (float64, error) {
	values := helper.ChanToSlice(ch)
	if len(values) == 0 {
		return 0, fmt.Errorf("indicator produced no values")
	}
	last := values[len(values)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, fmt.Errorf("indicator produced a non-finite value")
	}
	return last, nil
}
