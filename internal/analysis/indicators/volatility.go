package indicators

import (
	"trade-review/internal/models"
)

// CalculateVolatility returns the Average True Range over the whole window:
// the plain mean of every candle's true range after the first (no Wilder
// smoothing). Fewer than 2 candles yields 0 with ErrInsufficientData.
func CalculateVolatility(candles []models.Candle) (float64, error) {
	if len(candles) < 2 {
		return 0, ErrInsufficientData
	}

	tr := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		tr = append(tr, trueRange(candles[i], candles[i-1]))
	}
	return mean(tr), nil
}
