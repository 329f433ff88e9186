package indicators

import (
	"sort"

	"trade-review/internal/models"
)

const (
	// DefaultNumLevels is the number of support and resistance levels reported.
	DefaultNumLevels = 3
	// ClusterTolerance is the relative distance under which consecutive sorted
	// swing prices join the same cluster.
	ClusterTolerance = 0.01
)

// SwingPoints returns the lows of swing-low candles and the highs of
// swing-high candles, in candle order. A swing low is strictly below both
// neighbors' lows, a swing high strictly above both neighbors' highs; the
// first and last candles are never swings.
func SwingPoints(candles []models.Candle) (lows, highs []float64) {
	for i := 1; i < len(candles)-1; i++ {
		prev, cur, next := candles[i-1], candles[i], candles[i+1]
		if cur.Low < prev.Low && cur.Low < next.Low {
			lows = append(lows, cur.Low)
		}
		if cur.High > prev.High && cur.High > next.High {
			highs = append(highs, cur.High)
		}
	}
	return lows, highs
}

// FindSupportResistance derives up to numLevels support levels from swing
// lows and up to numLevels resistance levels from swing highs, both ascending.
// Fewer than 3 candles yields two empty lists with ErrInsufficientData.
func FindSupportResistance(candles []models.Candle, numLevels int) (support, resistance []float64, err error) {
	if numLevels < 1 {
		return []float64{}, []float64{}, ErrInvalidLevels
	}
	if len(candles) < 3 {
		return []float64{}, []float64{}, ErrInsufficientData
	}

	lows, highs := SwingPoints(candles)
	return ClusterLevels(lows, numLevels), ClusterLevels(highs, numLevels), nil
}

// ClusterLevels sorts levels and, when there are more than numLevels of them,
// merges neighbors greedily: each value joins the current cluster if it lies
// within ClusterTolerance of that cluster's last member (not its centroid).
// Clusters collapse to their mean and the numLevels lowest are returned.
func ClusterLevels(levels []float64, numLevels int) []float64 {
	if len(levels) == 0 {
		return []float64{}
	}

	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Float64s(sorted)

	if len(sorted) <= numLevels {
		return sorted
	}

	clusters := make([]float64, 0, len(sorted))
	current := []float64{sorted[0]}
	for _, level := range sorted[1:] {
		last := current[len(current)-1]
		if abs(level-last)/last < ClusterTolerance {
			current = append(current, level)
			continue
		}
		clusters = append(clusters, mean(current))
		current = []float64{level}
	}
	clusters = append(clusters, mean(current))

	sort.Float64s(clusters)
	if len(clusters) > numLevels {
		clusters = clusters[:numLevels]
	}
	return clusters
}
