package indicators

import (
	apperrors "trade-review/internal/errors"
	"trade-review/internal/models"
)

var (
	// ErrInsufficientData is returned alongside the documented fallback value
	// when the window is too short for a calculation.
	ErrInsufficientData = apperrors.ErrInsufficientData
	// ErrFlatSeries is returned alongside the neutral fallback when closes have zero variance.
	ErrFlatSeries = apperrors.ErrFlatSeries
	// ErrInvalidLevels is returned when the requested number of levels is not positive.
	ErrInvalidLevels = apperrors.Wrap(apperrors.ErrInvalidInput, "number of levels must be positive")
)

// abs returns the absolute value of a float64.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// trueRange calculates the true range for a candle.
func trueRange(current, previous models.Candle) float64 {
	highLow := current.High - current.Low
	highClose := abs(current.High - previous.Close)
	lowClose := abs(current.Low - previous.Close)
	return max(highLow, max(highClose, lowClose))
}

// closePrices extracts close prices from candles.
func closePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// Volumes extracts volumes from candles.
func Volumes(candles []models.Candle) []float64 {
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	return vols
}

// Mean is the exported arithmetic mean; zero for an empty slice.
func Mean(values []float64) float64 {
	return mean(values)
}
