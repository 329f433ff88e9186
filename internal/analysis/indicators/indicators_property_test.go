package indicators

import (
	"math"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trade-review/internal/models"
)

// candleGen generates valid candle data with realistic OHLCV values
func candleGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Candle{}), map[string]gopter.Gen{
		"Timestamp": gen.Const(t0),
		"Open":      gen.Float64Range(100.0, 1000.0),
		"High":      gen.Float64Range(100.0, 1000.0),
		"Low":       gen.Float64Range(100.0, 1000.0),
		"Close":     gen.Float64Range(100.0, 1000.0),
		"Volume":    gen.Float64Range(0, 1e7),
	}).Map(func(c models.Candle) models.Candle {
		// Ensure OHLC constraints: High >= max(Open, Close) and Low <= min(Open, Close)
		c.High = math.Max(c.High, math.Max(c.Open, c.Close))
		c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
		return c
	})
}

// candleSliceGen generates an ordered slice of valid candles
func candleSliceGen(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, candleGen()).Map(func(candles []models.Candle) []models.Candle {
		for i := range candles {
			candles[i].Timestamp = t0.Add(time.Duration(i) * time.Hour)
		}
		return candles
	})
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

func TestProperty_TrendStrengthWithinBounds(t *testing.T) {
	properties := newProperties()

	properties.Property("trend strength is within [0, 1] for both fit modes", prop.ForAll(
		func(candles []models.Candle) bool {
			for _, mode := range []FitMode{FitCompat, FitOLS} {
				res, _ := CalculateTrendWithFit(candles, mode)
				if res.Strength < 0 || res.Strength > 1 || math.IsNaN(res.Strength) {
					return false
				}
			}
			return true
		},
		candleSliceGen(60),
	))

	properties.Property("compat strength never exceeds OLS strength", prop.ForAll(
		func(candles []models.Candle) bool {
			compat, _ := CalculateTrendWithFit(candles, FitCompat)
			ols, _ := CalculateTrendWithFit(candles, FitOLS)
			return compat.Strength <= ols.Strength+1e-9
		},
		candleSliceGen(60),
	))

	properties.TestingRun(t)
}

func TestProperty_VolatilityNonNegative(t *testing.T) {
	properties := newProperties()

	properties.Property("ATR is non-negative and bounded by the widest true range", prop.ForAll(
		func(candles []models.Candle) bool {
			v, err := CalculateVolatility(candles)
			if err != nil {
				return v == 0 && len(candles) < 2
			}
			widest := 0.0
			for i := 1; i < len(candles); i++ {
				widest = math.Max(widest, trueRange(candles[i], candles[i-1]))
			}
			return v >= 0 && v <= widest+1e-9
		},
		candleSliceGen(60),
	))

	properties.TestingRun(t)
}

func TestProperty_LevelsAscendingAndBounded(t *testing.T) {
	properties := newProperties()

	properties.Property("levels are ascending, at most N, and inside the price range", prop.ForAll(
		func(candles []models.Candle, n int) bool {
			support, resistance, err := FindSupportResistance(candles, n)
			if err != nil {
				return len(candles) < 3 && len(support) == 0 && len(resistance) == 0
			}
			if len(support) > n || len(resistance) > n {
				return false
			}
			if !sort.Float64sAreSorted(support) || !sort.Float64sAreSorted(resistance) {
				return false
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, c := range candles {
				lo = math.Min(lo, c.Low)
				hi = math.Max(hi, c.High)
			}
			for _, l := range append(append([]float64{}, support...), resistance...) {
				if l < lo || l > hi {
					return false
				}
			}
			return true
		},
		candleSliceGen(80),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestProperty_Deterministic(t *testing.T) {
	properties := newProperties()

	properties.Property("repeated calculations agree exactly", prop.ForAll(
		func(candles []models.Candle) bool {
			t1, _ := CalculateTrend(candles)
			t2, _ := CalculateTrend(candles)
			v1, _ := CalculateVolatility(candles)
			v2, _ := CalculateVolatility(candles)
			s1, r1, _ := FindSupportResistance(candles, DefaultNumLevels)
			s2, r2, _ := FindSupportResistance(candles, DefaultNumLevels)
			return t1 == t2 && v1 == v2 && reflect.DeepEqual(s1, s2) && reflect.DeepEqual(r1, r2)
		},
		candleSliceGen(40),
	))

	properties.TestingRun(t)
}
