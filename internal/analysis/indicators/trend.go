// Package indicators provides the deterministic price-series calculations
// behind a market context: regression trend, window ATR and swing levels.
package indicators

import (
	"trade-review/internal/models"
)

// TrendSlopeThreshold is the per-candle slope, relative to the mean close,
// above which a series is bullish (and below its negative, bearish).
const TrendSlopeThreshold = 0.001

// FitMode selects the baseline used for residuals when computing trend strength.
type FitMode string

const (
	// FitCompat measures residuals against slope*x + mean(close). It differs
	// from textbook R² whenever the OLS intercept is not the mean close.
	FitCompat FitMode = "compat"
	// FitOLS measures residuals against the full least-squares line.
	FitOLS FitMode = "ols"
)

// Valid reports whether m is a known fit mode.
func (m FitMode) Valid() bool {
	return m == FitCompat || m == FitOLS
}

// TrendResult holds the outcome of a trend calculation.
type TrendResult struct {
	Direction       models.Trend
	Strength        float64 // R², clamped to [0, 1]
	Slope           float64
	Intercept       float64
	NormalizedSlope float64
}

// NeutralTrend is the fallback for windows that cannot support a fit.
var NeutralTrend = TrendResult{Direction: models.TrendNeutral}

// CalculateTrend fits closes against candle index and classifies the slope,
// using the compat residual baseline.
//
// Fewer than 2 candles yields NeutralTrend with ErrInsufficientData; closes
// with zero variance yield NeutralTrend with ErrFlatSeries. Both are
// fallbacks, not failures: the returned result is always usable.
func CalculateTrend(candles []models.Candle) (TrendResult, error) {
	return CalculateTrendWithFit(candles, FitCompat)
}

// CalculateTrendWithFit is CalculateTrend with an explicit residual baseline.
func CalculateTrendWithFit(candles []models.Candle, mode FitMode) (TrendResult, error) {
	n := len(candles)
	if n < 2 {
		return NeutralTrend, ErrInsufficientData
	}

	closes := closePrices(candles)
	meanX := float64(n-1) / 2
	meanY := mean(closes)

	var sxy, sxx, ssTot float64
	for i, y := range closes {
		dx := float64(i) - meanX
		dy := y - meanY
		sxy += dx * dy
		sxx += dx * dx
		ssTot += dy * dy
	}
	if ssTot == 0 {
		return NeutralTrend, ErrFlatSeries
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	base := meanY
	if mode == FitOLS {
		base = intercept
	}
	var ssRes float64
	for i, y := range closes {
		r := y - (slope*float64(i) + base)
		ssRes += r * r
	}
	rSquared := 1 - ssRes/ssTot

	normalized := 0.0
	if meanY > 0 {
		normalized = slope / meanY
	}

	direction := models.TrendNeutral
	switch {
	case normalized > TrendSlopeThreshold:
		direction = models.TrendBullish
	case normalized < -TrendSlopeThreshold:
		direction = models.TrendBearish
	}

	return TrendResult{
		Direction:       direction,
		Strength:        clamp01(rSquared),
		Slope:           slope,
		Intercept:       intercept,
		NormalizedSlope: normalized,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
