package report

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatCurrency formats an amount with a dollar sign, two decimals and
// thousands separators.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPnL formats P&L with an explicit sign for gains.
func FormatPnL(pnl float64) string {
	formatted := FormatCurrency(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatFraction formats a 0-1 fraction as a percentage.
func FormatFraction(value float64) string {
	return FormatPercent(value * 100)
}

// FormatVolume formats a volume as a grouped whole number.
func FormatVolume(volume float64) string {
	return groupThousands(fmt.Sprintf("%.0f", math.Abs(volume)))
}

// FormatRatio formats a ratio with two decimals. Infinite ratios render as "inf".
func FormatRatio(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatLevels formats price levels as a comma separated list.
func FormatLevels(levels []float64) string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = FormatCurrency(l)
	}
	return strings.Join(out, ", ")
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
