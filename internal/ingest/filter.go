package ingest

import (
	"fmt"
	"time"

	"trade-review/internal/models"
)

// FilterCandles returns the candles with start <= timestamp <= end, in input order.
func FilterCandles(candles []models.Candle, start, end time.Time) []models.Candle {
	out := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if inRange(c.Timestamp, start, end) {
			out = append(out, c)
		}
	}
	return out
}

// FilterTrades returns the trades entered within [start, end], in input order.
func FilterTrades(trades []models.Trade, start, end time.Time) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if inRange(t.Timestamp, start, end) {
			out = append(out, t)
		}
	}
	return out
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// ValidateTrades inspects trade data for missing risk management and
// inconsistent fields. It returns human-readable warnings in trade order and
// never fails.
func ValidateTrades(trades []models.Trade) []string {
	var warnings []string
	warn := func(t models.Trade, msg string) {
		warnings = append(warnings, fmt.Sprintf("Trade %s: %s", t.ID, msg))
	}

	for _, t := range trades {
		if t.StopLoss == nil {
			warn(t, "No stop loss defined")
		}
		if t.TakeProfit == nil {
			warn(t, "No take profit defined")
		}
		if t.ExitPrice != nil && t.PnL == nil {
			warn(t, "Exit price set but P&L not calculated")
		}
		if t.ExitPrice != nil && t.ExitTimestamp == nil {
			warn(t, "Exit price set but no exit timestamp")
		}

		if t.Side == models.SideBuy {
			if t.StopLoss != nil && *t.StopLoss >= t.EntryPrice {
				warn(t, "Buy stop loss should be below entry")
			}
			if t.TakeProfit != nil && *t.TakeProfit <= t.EntryPrice {
				warn(t, "Buy take profit should be above entry")
			}
		} else {
			if t.StopLoss != nil && *t.StopLoss <= t.EntryPrice {
				warn(t, "Sell stop loss should be above entry")
			}
			if t.TakeProfit != nil && *t.TakeProfit >= t.EntryPrice {
				warn(t, "Sell take profit should be below entry")
			}
		}
	}
	return warnings
}
