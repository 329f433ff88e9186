// Package metrics folds trades and their evaluations into summary performance figures.
//
// P&L figures count a trade as closed when its realized P&L is recorded. Trend
// alignment, discipline and entry tallies count every evaluated trade.
package metrics

import (
	"math"

	"trade-review/internal/models"
)

// Metric keys used in the flat performance map.
const (
	KeyTotalTrades          = "total_trades"
	KeyClosedTrades         = "closed_trades"
	KeyOpenTrades           = "open_trades"
	KeyWinningTrades        = "winning_trades"
	KeyLosingTrades         = "losing_trades"
	KeyWinRate              = "win_rate"
	KeyTotalPnL             = "total_pnl"
	KeyAvgPnL               = "avg_pnl"
	KeyTradesWithTrend      = "trades_with_trend"
	KeyTradesAgainstTrend   = "trades_against_trend"
	KeyHighDisciplineTrades = "high_discipline_trades"
	KeyGoodEntryTrades      = "good_entry_trades"

	KeyMaxDrawdown  = "max_drawdown"
	KeyAvgWin       = "avg_win"
	KeyAvgLoss      = "avg_loss"
	KeyProfitFactor = "profit_factor"
	KeyLargestWin   = "largest_win"
	KeyLargestLoss  = "largest_loss"
)

// Summary is the core performance summary of a batch of trades.
type Summary struct {
	TotalTrades          int
	ClosedTrades         int
	OpenTrades           int
	WinningTrades        int
	LosingTrades         int
	WinRate              float64 // percent of closed trades
	TotalPnL             float64
	AvgPnL               float64
	TradesWithTrend      int
	TradesAgainstTrend   int
	HighDisciplineTrades int
	GoodEntryTrades      int
}

// Additional holds the drawdown and win/loss distribution figures.
type Additional struct {
	MaxDrawdown  float64
	AvgWin       float64
	AvgLoss      float64 // magnitude
	ProfitFactor float64 // +Inf when there are wins but no losses
	LargestWin   float64
	LargestLoss  float64 // magnitude
}

// Calculate computes the core summary. Alignment counts use total trades as
// the denominator, so open trades still count toward them.
func Calculate(trades []models.Trade, evals []models.TradeEvaluation) Summary {
	s := Summary{TotalTrades: len(trades)}

	for _, pnl := range realized(trades) {
		s.ClosedTrades++
		s.TotalPnL += pnl
		switch {
		case pnl > 0:
			s.WinningTrades++
		case pnl < 0:
			s.LosingTrades++
		}
	}
	s.OpenTrades = s.TotalTrades - s.ClosedTrades
	if s.ClosedTrades > 0 {
		s.AvgPnL = s.TotalPnL / float64(s.ClosedTrades)
		s.WinRate = float64(s.WinningTrades) / float64(s.ClosedTrades) * 100
	}

	for _, e := range evals {
		if e.AlignedWithTrend {
			s.TradesWithTrend++
		}
		if e.ExecutionDiscipline == models.DisciplineHigh {
			s.HighDisciplineTrades++
		}
		if e.EntryQuality == models.QualityGood {
			s.GoodEntryTrades++
		}
	}
	s.TradesAgainstTrend = s.TotalTrades - s.TradesWithTrend

	return s
}

// CalculateAdditional computes drawdown and win/loss distribution over
// realized P&L in trade order. With no realized trades every figure is zero.
func CalculateAdditional(trades []models.Trade) Additional {
	pnls := realized(trades)
	if len(pnls) == 0 {
		return Additional{}
	}

	var a Additional
	var totalWins, totalLosses float64
	var wins, losses int
	var cumulative, peak float64

	for _, pnl := range pnls {
		switch {
		case pnl > 0:
			wins++
			totalWins += pnl
			a.LargestWin = math.Max(a.LargestWin, pnl)
		case pnl < 0:
			losses++
			totalLosses += -pnl
			a.LargestLoss = math.Max(a.LargestLoss, -pnl)
		}

		cumulative += pnl
		if cumulative > peak {
			peak = cumulative
		}
		a.MaxDrawdown = math.Max(a.MaxDrawdown, peak-cumulative)
	}

	if wins > 0 {
		a.AvgWin = totalWins / float64(wins)
	}
	if losses > 0 {
		a.AvgLoss = totalLosses / float64(losses)
	}
	if totalLosses > 0 {
		a.ProfitFactor = totalWins / totalLosses
	} else {
		a.ProfitFactor = math.Inf(1)
	}
	return a
}

// ToMap flattens the summary into the performance map keys.
func (s Summary) ToMap() map[string]float64 {
	return map[string]float64{
		KeyTotalTrades:          float64(s.TotalTrades),
		KeyClosedTrades:         float64(s.ClosedTrades),
		KeyOpenTrades:           float64(s.OpenTrades),
		KeyWinningTrades:        float64(s.WinningTrades),
		KeyLosingTrades:         float64(s.LosingTrades),
		KeyWinRate:              s.WinRate,
		KeyTotalPnL:             s.TotalPnL,
		KeyAvgPnL:               s.AvgPnL,
		KeyTradesWithTrend:      float64(s.TradesWithTrend),
		KeyTradesAgainstTrend:   float64(s.TradesAgainstTrend),
		KeyHighDisciplineTrades: float64(s.HighDisciplineTrades),
		KeyGoodEntryTrades:      float64(s.GoodEntryTrades),
	}
}

// ToMap flattens the additional figures into the performance map keys.
func (a Additional) ToMap() map[string]float64 {
	return map[string]float64{
		KeyMaxDrawdown:  a.MaxDrawdown,
		KeyAvgWin:       a.AvgWin,
		KeyAvgLoss:      a.AvgLoss,
		KeyProfitFactor: a.ProfitFactor,
		KeyLargestWin:   a.LargestWin,
		KeyLargestLoss:  a.LargestLoss,
	}
}

// Performance returns the merged core and additional metrics map.
func Performance(trades []models.Trade, evals []models.TradeEvaluation) map[string]float64 {
	m := Calculate(trades, evals).ToMap()
	for k, v := range CalculateAdditional(trades).ToMap() {
		m[k] = v
	}
	return m
}

func realized(trades []models.Trade) []float64 {
	pnls := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.PnL != nil {
			pnls = append(pnls, *t.PnL)
		}
	}
	return pnls
}
