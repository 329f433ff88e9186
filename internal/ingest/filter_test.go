package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trade-review/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestFilterCandles_Inclusive(t *testing.T) {
	candles := []models.Candle{
		{Timestamp: day(1)}, {Timestamp: day(2)}, {Timestamp: day(3)}, {Timestamp: day(4)},
	}
	got := FilterCandles(candles, day(2), day(3))
	assert.Equal(t, []models.Candle{{Timestamp: day(2)}, {Timestamp: day(3)}}, got)

	assert.Empty(t, FilterCandles(candles, day(5), day(6)))
	assert.NotNil(t, FilterCandles(nil, day(1), day(2)))
}

func TestFilterTrades(t *testing.T) {
	trades := []models.Trade{
		{ID: "a", Timestamp: day(1)},
		{ID: "b", Timestamp: day(2).Add(12 * time.Hour)},
		{ID: "c", Timestamp: day(3)},
	}
	got := FilterTrades(trades, day(2), day(3))
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestValidateTrades(t *testing.T) {
	trades := []models.Trade{
		{
			ID: "T1", Side: models.SideBuy, EntryPrice: 100,
			StopLoss: models.Float(95), TakeProfit: models.Float(110),
			ExitPrice: models.Float(105), ExitTimestamp: models.Time(day(2)), PnL: models.Float(5),
		},
		{
			ID: "T2", Side: models.SideBuy, EntryPrice: 100,
			StopLoss: models.Float(101), TakeProfit: models.Float(99),
		},
		{
			ID: "T3", Side: models.SideSell, EntryPrice: 100,
			StopLoss: models.Float(99), TakeProfit: models.Float(101),
		},
		{
			ID: "T4", Side: models.SideSell, EntryPrice: 100,
			ExitPrice: models.Float(90),
		},
	}

	assert.Equal(t, []string{
		"Trade T2: Buy stop loss should be below entry",
		"Trade T2: Buy take profit should be above entry",
		"Trade T3: Sell stop loss should be above entry",
		"Trade T3: Sell take profit should be below entry",
		"Trade T4: No stop loss defined",
		"Trade T4: No take profit defined",
		"Trade T4: Exit price set but P&L not calculated",
		"Trade T4: Exit price set but no exit timestamp",
	}, ValidateTrades(trades))

	assert.Empty(t, ValidateTrades(trades[:1]))
}
