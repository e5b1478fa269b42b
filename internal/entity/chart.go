package entity

// ChartSeries is a chart-ready candlestick series. Degraded marks a series
// synthesized from a single quote instead of real history; the UI must label
// it so it cannot be mistaken for a historical chart.
type ChartSeries struct {
	Symbol   string   `json:"symbol"`
	Points   []Candle `json:"points"`
	Degraded bool     `json:"degraded"`
}

// Empty reports whether there is nothing to draw. Callers render a "no data"
// state instead of an empty chart.
func (s ChartSeries) Empty() bool {
	return len(s.Points) == 0
}
