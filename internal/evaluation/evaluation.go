// Package evaluation scores individual trades against a market context using
// fixed point-accumulator rules mapped to ordinal tiers.
package evaluation

import (
	"fmt"

	"trade-review/internal/models"
)

const (
	// LevelProximity is the relative distance within which an entry counts as "at" a level.
	LevelProximity = 0.01
	// ExitReturnBand separates large from small wins and losses on exit.
	ExitReturnBand = 0.02
	// FavorableRiskReward is the ratio at or above which risk/reward is favorable.
	FavorableRiskReward = 2.0
	// MinimumRiskReward is the ratio at or above which risk/reward earns partial credit.
	MinimumRiskReward = 1.0
)

// Observation texts, emitted in this order when they apply.
const (
	ObsGoodEntry         = "Entry was well-timed and aligned with market structure"
	ObsPoorEntry         = "Entry could be improved - consider market context"
	ObsCounterTrend      = "Trade was counter-trend - higher risk strategy"
	ObsFavorableRRFormat = "Favorable risk/reward ratio of %.2f"
	ObsImproveRRFormat   = "Risk/reward ratio of %.2f could be improved"
	ObsMissingRiskMgmt   = "No stop loss or take profit set - missing risk management"
	ObsLowDiscipline     = "Execution discipline needs improvement - use stop losses and take profits"
)

// EntryScore accumulates entry points: +2 with a non-neutral trend, +1 in a
// neutral market, -1 against the trend, and +2 more when a buy enters near
// support or a sell near resistance.
func EntryScore(trade models.Trade, mc *models.MarketContext) int {
	score := 0
	switch {
	case withTrend(trade.Side, mc.Trend):
		score += 2
	case mc.Trend == models.TrendNeutral:
		score++
	default:
		score--
	}

	levels := mc.SupportLevels
	if trade.Side == models.SideSell {
		levels = mc.ResistanceLevels
	}
	if nearAny(trade.EntryPrice, levels) {
		score += 2
	}
	return score
}

// EvaluateEntryQuality tiers EntryScore: >=3 good, 1-2 acceptable, else poor.
func EvaluateEntryQuality(trade models.Trade, mc *models.MarketContext) models.Quality {
	score := EntryScore(trade, mc)
	switch {
	case score >= 3:
		return models.QualityGood
	case score >= 1:
		return models.QualityAcceptable
	default:
		return models.QualityPoor
	}
}

// ReturnPercent is the signed return of a closed trade relative to entry, as
// a fraction; positive means profit for either side. ok is false for open trades.
func ReturnPercent(trade models.Trade) (ret float64, ok bool) {
	if trade.ExitPrice == nil {
		return 0, false
	}
	exit := *trade.ExitPrice
	if trade.Side == models.SideSell {
		return (trade.EntryPrice - exit) / trade.EntryPrice, true
	}
	return (exit - trade.EntryPrice) / trade.EntryPrice, true
}

// ExitScore accumulates exit points for a closed trade; ok is false for open trades.
func ExitScore(trade models.Trade) (score int, ok bool) {
	ret, ok := ReturnPercent(trade)
	if !ok {
		return 0, false
	}

	switch {
	case ret > ExitReturnBand:
		score += 2
	case ret > 0:
		score++
	case ret < -ExitReturnBand:
		score -= 2
	default:
		score--
	}

	if trade.StopLoss != nil {
		score++
	}
	if trade.TakeProfit != nil {
		score++
	}
	return score, true
}

// EvaluateExitQuality tiers ExitScore: >=3 good, 0-2 acceptable, else poor.
// ok is false when the trade is still open.
func EvaluateExitQuality(trade models.Trade, mc *models.MarketContext) (q models.Quality, ok bool) {
	score, ok := ExitScore(trade)
	if !ok {
		return "", false
	}
	switch {
	case score >= 3:
		return models.QualityGood, true
	case score >= 0:
		return models.QualityAcceptable, true
	default:
		return models.QualityPoor, true
	}
}

// CalculateRiskReward returns reward/risk from the stop-loss and take-profit
// distances. ok is false when either bound is missing or either distance is
// zero, so a present ratio is always positive.
func CalculateRiskReward(trade models.Trade) (ratio float64, ok bool) {
	if trade.StopLoss == nil || trade.TakeProfit == nil {
		return 0, false
	}

	var risk, reward float64
	if trade.Side == models.SideSell {
		risk = abs(*trade.StopLoss - trade.EntryPrice)
		reward = abs(trade.EntryPrice - *trade.TakeProfit)
	} else {
		risk = abs(trade.EntryPrice - *trade.StopLoss)
		reward = abs(*trade.TakeProfit - trade.EntryPrice)
	}

	if risk == 0 || reward == 0 {
		return 0, false
	}
	return reward / risk, true
}

// CheckTrendAlignment reports whether the trade follows the trend. Any trade
// in a neutral market is aligned.
func CheckTrendAlignment(trade models.Trade, mc *models.MarketContext) bool {
	return mc.Trend == models.TrendNeutral || withTrend(trade.Side, mc.Trend)
}

// DisciplineScore accumulates risk-management points: +2 stop loss, +2 take
// profit, +1 note, and +2 (ratio >= 2) or +1 (1 <= ratio < 2) for risk/reward.
func DisciplineScore(trade models.Trade) int {
	score := 0
	if trade.StopLoss != nil {
		score += 2
	}
	if trade.TakeProfit != nil {
		score += 2
	}
	if trade.HasNotes() {
		score++
	}
	if rr, ok := CalculateRiskReward(trade); ok {
		switch {
		case rr >= FavorableRiskReward:
			score += 2
		case rr >= MinimumRiskReward:
			score++
		}
	}
	return score
}

// EvaluateExecutionDiscipline tiers DisciplineScore: >=5 high, 3-4 medium, else low.
func EvaluateExecutionDiscipline(trade models.Trade) models.Discipline {
	score := DisciplineScore(trade)
	switch {
	case score >= 5:
		return models.DisciplineHigh
	case score >= 3:
		return models.DisciplineMedium
	default:
		return models.DisciplineLow
	}
}

// EvaluateTrade runs every sub-score for one trade and assembles the
// observations in a fixed order: entry remark, counter-trend remark,
// risk/reward remark, discipline remark.
func EvaluateTrade(trade models.Trade, mc *models.MarketContext) models.TradeEvaluation {
	entry := EvaluateEntryQuality(trade, mc)
	aligned := CheckTrendAlignment(trade, mc)
	discipline := EvaluateExecutionDiscipline(trade)

	eval := models.TradeEvaluation{
		TradeID:             trade.ID,
		EntryQuality:        entry,
		AlignedWithTrend:    aligned,
		ExecutionDiscipline: discipline,
		KeyObservations:     []string{},
	}
	if exit, ok := EvaluateExitQuality(trade, mc); ok {
		eval.ExitQuality = &exit
	}

	switch entry {
	case models.QualityGood:
		eval.KeyObservations = append(eval.KeyObservations, ObsGoodEntry)
	case models.QualityPoor:
		eval.KeyObservations = append(eval.KeyObservations, ObsPoorEntry)
	}

	if !aligned {
		eval.KeyObservations = append(eval.KeyObservations, ObsCounterTrend)
	}

	if rr, ok := CalculateRiskReward(trade); ok {
		eval.RiskRewardRatio = &rr
		if rr >= FavorableRiskReward {
			eval.KeyObservations = append(eval.KeyObservations, fmt.Sprintf(ObsFavorableRRFormat, rr))
		} else {
			eval.KeyObservations = append(eval.KeyObservations, fmt.Sprintf(ObsImproveRRFormat, rr))
		}
	} else {
		eval.KeyObservations = append(eval.KeyObservations, ObsMissingRiskMgmt)
	}

	if discipline == models.DisciplineLow {
		eval.KeyObservations = append(eval.KeyObservations, ObsLowDiscipline)
	}

	return eval
}

// EvaluateTrades evaluates each trade sequentially, preserving input order.
func EvaluateTrades(trades []models.Trade, mc *models.MarketContext) []models.TradeEvaluation {
	evals := make([]models.TradeEvaluation, len(trades))
	for i, t := range trades {
		evals[i] = EvaluateTrade(t, mc)
	}
	return evals
}

func withTrend(side models.Side, trend models.Trend) bool {
	return (trend == models.TrendBullish && side == models.SideBuy) ||
		(trend == models.TrendBearish && side == models.SideSell)
}

func nearAny(price float64, levels []float64) bool {
	for _, level := range levels {
		if abs(price-level)/level < LevelProximity {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
