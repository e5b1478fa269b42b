// Package promptbuilder renders snapshot pairs into generation requests for
// the analyst LLM. Formatting rules: currency values get thousands separators
// and no decimals, ratios and percents get two decimals, and a missing value
// renders as the sentinel literal instead of raising a formatting fault.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"github.com/vadiminshakov/stockpair/internal/services/indicators"
	"go.uber.org/zap"
)

// maxHistoryTurns bounds how many prior chat turns are replayed into the
// question prompt.
const maxHistoryTurns = 20

// PromptBuilder constructs prompts for the comparison brief and chat answers.
type PromptBuilder struct {
	logger *zap.Logger
}

// NewPromptBuilder creates a new PromptBuilder instance.
func NewPromptBuilder(logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{logger: logger}
}

// BuildComparison renders the fixed-structure comparison brief for two
// snapshots. The output always contains both symbols.
func (pb *PromptBuilder) BuildComparison(a, b *entity.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Stock Comparison: %s vs %s\n\n", a.Symbol, b.Symbol))
	sb.WriteString("Analyze these two stocks:\n\n")
	sb.WriteString(pb.formatSnapshot(a))
	sb.WriteString("\n")
	sb.WriteString(pb.formatSnapshot(b))

	sb.WriteString("\n## Instructions\n\n")
	sb.WriteString("Provide a detailed analysis covering:\n")
	sb.WriteString("1. Valuation comparison\n")
	sb.WriteString("2. Growth potential\n")
	sb.WriteString("3. Risk assessment\n")
	sb.WriteString("4. Sector outlook\n")
	sb.WriteString("5. Investment recommendation\n")

	return sb.String()
}

// BuildQuestion renders the chat context block, the prior conversation and
// the free-form question into one prompt.
func (pb *PromptBuilder) BuildQuestion(history []entity.ConversationTurn, question string, a, b *entity.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Context: %s (%s) vs %s (%s)\n\n",
		a.Symbol, a.CompanyName, b.Symbol, b.CompanyName))
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString(pb.formatSnapshot(a))
	sb.WriteString("\n")
	sb.WriteString(pb.formatSnapshot(b))

	if len(history) > 0 {
		start := 0
		if len(history) > maxHistoryTurns {
			start = len(history) - maxHistoryTurns
		}
		sb.WriteString("\n## Conversation So Far\n\n")
		for _, turn := range history[start:] {
			sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Text))
		}
	}

	sb.WriteString("\n## Question\n\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer specifically for these two companies, comparing their metrics where relevant.\n")

	return sb.String()
}

// formatSnapshot renders one company block of the fixed brief structure.
func (pb *PromptBuilder) formatSnapshot(s *entity.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s (%s)\n", s.Symbol, s.CompanyName))
	sb.WriteString(fmt.Sprintf("- Sector: %s | Exchange: %s\n", s.Sector, s.Exchange))
	sb.WriteString(fmt.Sprintf("- Market Cap: %s\n", FormatCurrency(s.MarketCap)))
	sb.WriteString(fmt.Sprintf("- P/E: %s | Forward P/E: %s\n",
		FormatRatio(s.TrailingPE), FormatRatio(s.ForwardPE)))
	sb.WriteString(fmt.Sprintf("- Price: %s (52W range: %s - %s)\n",
		FormatPrice(s.CurrentPrice), FormatPrice(s.FiftyTwoWeekLow), FormatPrice(s.FiftyTwoWeekHigh)))
	sb.WriteString(fmt.Sprintf("- Beta: %s | Dividend Yield: %s\n",
		FormatRatio(s.Beta), FormatYield(s.DividendYield)))

	if summary, err := indicators.Compute(s.PriceHistory); err == nil {
		sb.WriteString(fmt.Sprintf("- Technicals: SMA20 %s | SMA50 %s | RSI14 %s\n",
			summary.SMA20.StringFixed(2), summary.SMA50.StringFixed(2), summary.RSI14.StringFixed(2)))
	} else if pb.logger != nil {
		pb.logger.Debug("technical summary skipped", zap.String("symbol", s.Symbol), zap.Error(err))
	}

	return sb.String()
}

// FormatCurrency renders a currency amount with thousands separators and no
// decimal places, or the sentinel when the value is missing.
func FormatCurrency(m entity.Metric) string {
	if !m.Valid {
		return entity.NotAvailable
	}
	rounded, _ := decimal.NewFromFloat(m.Value).Round(0).Float64()
	return "$" + humanize.CommafWithDigits(rounded, 0)
}

// FormatPrice renders a per-share price with two decimals.
func FormatPrice(m entity.Metric) string {
	if !m.Valid {
		return entity.NotAvailable
	}
	return "$" + decimal.NewFromFloat(m.Value).StringFixed(2)
}

// FormatRatio renders a unitless ratio with two decimals.
func FormatRatio(m entity.Metric) string {
	if !m.Valid {
		return entity.NotAvailable
	}
	return decimal.NewFromFloat(m.Value).StringFixed(2)
}

// FormatYield renders a dividend yield stored as a fraction as a percent
// with two decimals.
func FormatYield(m entity.Metric) string {
	if !m.Valid {
		return entity.NotAvailable
	}
	return decimal.NewFromFloat(m.Value * 100).StringFixed(2) + "%"
}
