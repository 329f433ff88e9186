// Package models provides domain models for the trade review application.
package models

import (
	"time"
)

// Side represents the side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known trade side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trend represents the prevailing market direction over an analysis window.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Quality is the ordinal tier for entry and exit quality.
type Quality string

const (
	QualityGood       Quality = "good"
	QualityAcceptable Quality = "acceptable"
	QualityPoor       Quality = "poor"
)

// Discipline is the ordinal tier for execution discipline.
type Discipline string

const (
	DisciplineHigh   Discipline = "high"
	DisciplineMedium Discipline = "medium"
	DisciplineLow    Discipline = "low"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    float64   `json:"volume" yaml:"volume"`
}

// MarketContext is a read-only snapshot of market conditions for one symbol and period.
type MarketContext struct {
	Symbol           string    `json:"symbol" yaml:"symbol"`
	StartDate        time.Time `json:"start_date" yaml:"start_date"`
	EndDate          time.Time `json:"end_date" yaml:"end_date"`
	Trend            Trend     `json:"trend" yaml:"trend"`
	TrendStrength    float64   `json:"trend_strength" yaml:"trend_strength"`
	Volatility       float64   `json:"volatility" yaml:"volatility"`
	SupportLevels    []float64 `json:"support_levels" yaml:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels" yaml:"resistance_levels"`
	AverageVolume    float64   `json:"average_volume" yaml:"average_volume"`
	// Fallbacks names each degenerate outcome the analyzer substituted
	// (for example "trend: insufficient data").
	Fallbacks []string `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// TradeEvaluation is the rule-based assessment of a single trade.
type TradeEvaluation struct {
	TradeID             string     `json:"trade_id" yaml:"trade_id"`
	EntryQuality        Quality    `json:"entry_quality" yaml:"entry_quality"`
	ExitQuality         *Quality   `json:"exit_quality" yaml:"exit_quality"`
	RiskRewardRatio     *float64   `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	AlignedWithTrend    bool       `json:"aligned_with_trend" yaml:"aligned_with_trend"`
	ExecutionDiscipline Discipline `json:"execution_discipline" yaml:"execution_discipline"`
	KeyObservations     []string   `json:"key_observations" yaml:"key_observations"`
}

// TradeReview bundles everything produced for one review period.
type TradeReview struct {
	ID            string             `json:"id" yaml:"id"`
	PeriodStart   time.Time          `json:"period_start" yaml:"period_start"`
	PeriodEnd     time.Time          `json:"period_end" yaml:"period_end"`
	Symbol        string             `json:"symbol" yaml:"symbol"`
	MarketContext MarketContext      `json:"market_context" yaml:"market_context"`
	Trades        []Trade            `json:"trades" yaml:"trades"`
	Evaluations   []TradeEvaluation  `json:"evaluations" yaml:"evaluations"`
	Performance   map[string]float64 `json:"overall_performance" yaml:"overall_performance"`
	Warnings      []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
