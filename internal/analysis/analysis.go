// Package analysis derives a market context snapshot from a candle window.
package analysis

import (
	"fmt"
	"time"

	"trade-review/internal/analysis/indicators"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/models"
)

// Options tunes the market context analyzer.
type Options struct {
	NumLevels int
	FitMode   indicators.FitMode
}

// DefaultOptions returns the analyzer defaults.
func DefaultOptions() Options {
	return Options{
		NumLevels: indicators.DefaultNumLevels,
		FitMode:   indicators.FitCompat,
	}
}

// Analyzer composes the indicator calculations into a MarketContext.
// It holds no state between calls and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an analyzer. Zero-valued options fall back to defaults.
func NewAnalyzer(opts Options) *Analyzer {
	def := DefaultOptions()
	if opts.NumLevels <= 0 {
		opts.NumLevels = def.NumLevels
	}
	if !opts.FitMode.Valid() {
		opts.FitMode = def.FitMode
	}
	return &Analyzer{opts: opts}
}

// Options returns the effective analyzer options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// AnalyzeMarketContext analyzes candles with the default options.
func AnalyzeMarketContext(symbol string, candles []models.Candle, start, end time.Time) (*models.MarketContext, error) {
	return NewAnalyzer(DefaultOptions()).Analyze(symbol, candles, start, end)
}

// Analyze builds the market context for symbol over [start, end].
//
// An empty window is an error. Windows too short for an individual
// calculation still produce a context: the fallback values are used and
// each substitution is named in MarketContext.Fallbacks.
func (a *Analyzer) Analyze(symbol string, candles []models.Candle, start, end time.Time) (*models.MarketContext, error) {
	if len(candles) == 0 {
		return nil, apperrors.NewDataError("candles", symbol, "empty candle window", apperrors.ErrInsufficientData)
	}

	var fallbacks []string
	note := func(calc string, err error) error {
		if apperrors.Is(err, apperrors.ErrInsufficientData) || apperrors.Is(err, apperrors.ErrFlatSeries) {
			fallbacks = append(fallbacks, fmt.Sprintf("%s: %v", calc, err))
			return nil
		}
		return err
	}

	trend, err := indicators.CalculateTrendWithFit(candles, a.opts.FitMode)
	if err = note("trend", err); err != nil {
		return nil, apperrors.NewDataError("trend", symbol, "trend calculation failed", err)
	}

	volatility, err := indicators.CalculateVolatility(candles)
	if err = note("volatility", err); err != nil {
		return nil, apperrors.NewDataError("volatility", symbol, "volatility calculation failed", err)
	}

	support, resistance, err := indicators.FindSupportResistance(candles, a.opts.NumLevels)
	if err = note("levels", err); err != nil {
		return nil, apperrors.NewDataError("levels", symbol, "level detection failed", err)
	}

	return &models.MarketContext{
		Symbol:           symbol,
		StartDate:        start,
		EndDate:          end,
		Trend:            trend.Direction,
		TrendStrength:    trend.Strength,
		Volatility:       volatility,
		SupportLevels:    support,
		ResistanceLevels: resistance,
		AverageVolume:    indicators.Mean(indicators.Volumes(candles)),
		Fallbacks:        fallbacks,
	}, nil
}
