// Package report renders a TradeReview as text, JSON, YAML or CSV.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"trade-review/internal/metrics"
	"trade-review/internal/models"
)

const ruleWidth = 80

// TextOptions controls the text report.
type TextOptions struct {
	Color bool
}

// painter wraps the colors used by the text report so they can be switched
// off per report rather than globally.
type painter struct {
	bold, green, red, yellow, cyan, dim *color.Color
}

func newPainter(enabled bool) *painter {
	p := &painter{
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		cyan:   color.New(color.FgCyan),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.bold, p.green, p.red, p.yellow, p.cyan, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *painter) trend(t models.Trend) *color.Color {
	switch t {
	case models.TrendBullish:
		return p.green
	case models.TrendBearish:
		return p.red
	default:
		return p.yellow
	}
}

func (p *painter) pnl(v float64) string {
	switch {
	case v > 0:
		return p.green.Sprint(FormatCurrency(v))
	case v < 0:
		return p.red.Sprint(FormatCurrency(v))
	default:
		return FormatCurrency(v)
	}
}

func (p *painter) quality(q models.Quality) string {
	switch q {
	case models.QualityGood:
		return p.green.Sprint(q)
	case models.QualityPoor:
		return p.red.Sprint(q)
	default:
		return string(q)
	}
}

// WriteText writes the human-readable review report.
func WriteText(w io.Writer, rev *models.TradeReview, opts TextOptions) error {
	p := newPainter(opts.Color)
	var b strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	section := func(title string) {
		line("%s", p.bold.Sprint(title))
		line("%s", light)
	}

	line("%s", heavy)
	line("%s", p.bold.Sprint("TRADE REVIEW REPORT"))
	line("%s", heavy)
	line("")
	line("Symbol: %s", rev.Symbol)
	line("Period: %s to %s", FormatDate(rev.PeriodStart), FormatDate(rev.PeriodEnd))
	if rev.ID != "" {
		line("Review: %s", p.dim.Sprint(rev.ID))
	}
	line("")

	mc := rev.MarketContext
	section("MARKET CONTEXT")
	line("Trend: %s (strength: %s)", p.trend(mc.Trend).Sprint(strings.ToUpper(string(mc.Trend))), FormatFraction(mc.TrendStrength))
	line("Volatility (ATR): %s", FormatCurrency(mc.Volatility))
	if len(mc.SupportLevels) > 0 {
		line("Support Levels: %s", FormatLevels(mc.SupportLevels))
	}
	if len(mc.ResistanceLevels) > 0 {
		line("Resistance Levels: %s", FormatLevels(mc.ResistanceLevels))
	}
	line("Average Volume: %s", FormatVolume(mc.AverageVolume))
	for _, f := range mc.Fallbacks {
		line("%s", p.yellow.Sprintf("Fallback: %s", f))
	}
	line("")

	perf := rev.Performance
	section("PERFORMANCE SUMMARY")
	line("Total Trades: %.0f", perf[metrics.KeyTotalTrades])
	line("Closed: %.0f | Open: %.0f", perf[metrics.KeyClosedTrades], perf[metrics.KeyOpenTrades])
	line("Win Rate: %s (%.0f wins, %.0f losses)", FormatPercent(perf[metrics.KeyWinRate]), perf[metrics.KeyWinningTrades], perf[metrics.KeyLosingTrades])
	line("Total P&L: %s", p.pnl(perf[metrics.KeyTotalPnL]))
	line("Avg P&L per Trade: %s", p.pnl(perf[metrics.KeyAvgPnL]))
	line("Trend Alignment: %.0f with / %.0f against", perf[metrics.KeyTradesWithTrend], perf[metrics.KeyTradesAgainstTrend])
	line("High Discipline: %.0f | Good Entries: %.0f", perf[metrics.KeyHighDisciplineTrades], perf[metrics.KeyGoodEntryTrades])
	if _, ok := perf[metrics.KeyMaxDrawdown]; ok {
		line("Max Drawdown: %s", FormatCurrency(perf[metrics.KeyMaxDrawdown]))
		line("Profit Factor: %s", FormatRatio(perf[metrics.KeyProfitFactor]))
		line("Avg Win: %s | Avg Loss: %s", FormatCurrency(perf[metrics.KeyAvgWin]), FormatCurrency(perf[metrics.KeyAvgLoss]))
		line("Largest Win: %s | Largest Loss: %s", FormatCurrency(perf[metrics.KeyLargestWin]), FormatCurrency(perf[metrics.KeyLargestLoss]))
	}
	line("")

	section("TRADE DETAILS")
	for i, t := range rev.Trades {
		line("")
		line("%s - %s @ %s", p.cyan.Sprint(t.ID), strings.ToUpper(string(t.Side)), FormatCurrency(t.EntryPrice))
		if t.ExitPrice != nil {
			pnl := "n/a"
			if t.PnL != nil {
				pnl = p.pnl(*t.PnL)
			}
			line("  Exit: %s | P&L: %s", FormatCurrency(*t.ExitPrice), pnl)
		}
		if i >= len(rev.Evaluations) {
			continue
		}
		e := rev.Evaluations[i]
		exit := ""
		if e.ExitQuality != nil {
			exit = " | Exit: " + p.quality(*e.ExitQuality)
		}
		line("  Entry: %s%s | Discipline: %s", p.quality(e.EntryQuality), exit, e.ExecutionDiscipline)
		if e.RiskRewardRatio != nil {
			line("  Risk/Reward: %s", FormatRatio(*e.RiskRewardRatio))
		}
		for _, obs := range e.KeyObservations {
			line("  - %s", obs)
		}
	}
	line("")

	if len(rev.Warnings) > 0 {
		section("WARNINGS")
		for _, warn := range rev.Warnings {
			line("%s", p.yellow.Sprint(warn))
		}
		line("")
	}

	line("%s", heavy)

	_, err := io.WriteString(w, b.String())
	return err
}
