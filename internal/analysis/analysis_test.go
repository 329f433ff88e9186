package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-review/internal/analysis/indicators"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/models"
)

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func sampleCandles() []models.Candle {
	// A rising series with two swing lows (around 99 and 103) and two swing highs.
	raw := [][5]float64{
		{100, 102, 99.5, 101, 1000},
		{101, 101.5, 99, 100, 1200},
		{100, 104, 100, 103, 900},
		{103.5, 106, 103.5, 105, 1100},
		{105, 105.5, 103, 104, 800},
		{104, 108, 104, 107, 1300},
		{107, 110, 106, 109, 1000},
		{109, 109.5, 107, 108, 700},
	}
	candles := make([]models.Candle, len(raw))
	for i, r := range raw {
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * 12 * time.Hour),
			Open:      r[0], High: r[1], Low: r[2], Close: r[3], Volume: r[4],
		}
	}
	return candles
}

func TestAnalyzeMarketContext(t *testing.T) {
	candles := sampleCandles()
	mc, err := AnalyzeMarketContext("AAPL", candles, start, end)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", mc.Symbol)
	assert.Equal(t, start, mc.StartDate)
	assert.Equal(t, end, mc.EndDate)
	assert.Equal(t, models.TrendBullish, mc.Trend)
	assert.GreaterOrEqual(t, mc.TrendStrength, 0.0)
	assert.LessOrEqual(t, mc.TrendStrength, 1.0)
	assert.Equal(t, []float64{99, 103}, mc.SupportLevels)
	assert.Equal(t, []float64{106, 110}, mc.ResistanceLevels)
	assert.InDelta(t, 1000.0, mc.AverageVolume, 1e-9)
	assert.Empty(t, mc.Fallbacks)

	vol, err := indicators.CalculateVolatility(candles)
	require.NoError(t, err)
	assert.Equal(t, vol, mc.Volatility)
}

func TestAnalyzeMarketContext_EmptyWindow(t *testing.T) {
	mc, err := AnalyzeMarketContext("AAPL", nil, start, end)
	assert.Nil(t, mc)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	var dataErr *apperrors.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestAnalyzeMarketContext_SingleCandleFallbacks(t *testing.T) {
	mc, err := AnalyzeMarketContext("AAPL", sampleCandles()[:1], start, end)
	require.NoError(t, err)

	assert.Equal(t, models.TrendNeutral, mc.Trend)
	assert.Equal(t, 0.0, mc.TrendStrength)
	assert.Equal(t, 0.0, mc.Volatility)
	assert.Empty(t, mc.SupportLevels)
	assert.Empty(t, mc.ResistanceLevels)
	assert.Equal(t, 1000.0, mc.AverageVolume)
	assert.Equal(t, []string{
		"trend: insufficient data",
		"volatility: insufficient data",
		"levels: insufficient data",
	}, mc.Fallbacks)
}

func TestAnalyzeMarketContext_FlatSeries(t *testing.T) {
	candles := sampleCandles()[:4]
	for i := range candles {
		candles[i].Close = 101
		candles[i].Open = 101
		candles[i].High = 102
		candles[i].Low = 100
	}
	mc, err := AnalyzeMarketContext("AAPL", candles, start, end)
	require.NoError(t, err)
	assert.Equal(t, models.TrendNeutral, mc.Trend)
	assert.Contains(t, mc.Fallbacks, "trend: price series has zero variance")
}

func TestAnalyzer_Options(t *testing.T) {
	a := NewAnalyzer(Options{})
	assert.Equal(t, DefaultOptions(), a.Options())

	a = NewAnalyzer(Options{NumLevels: 1, FitMode: indicators.FitOLS})
	mc, err := a.Analyze("AAPL", sampleCandles(), start, end)
	require.NoError(t, err)
	assert.Equal(t, []float64{99}, mc.SupportLevels)
	assert.Equal(t, []float64{106}, mc.ResistanceLevels)
}

func TestAnalyze_DoesNotMutateCandles(t *testing.T) {
	candles := sampleCandles()
	before := append([]models.Candle(nil), candles...)
	_, err := AnalyzeMarketContext("AAPL", candles, start, end)
	require.NoError(t, err)
	assert.Equal(t, before, candles)
}
