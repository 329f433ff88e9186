package review

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-review/internal/config"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/evaluation"
	"trade-review/internal/logging"
	"trade-review/internal/metrics"
	"trade-review/internal/models"
)

const marketCSV = `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,102,99.5,101,1000
2024-01-01 12:00:00,101,101.5,99,100,1200
2024-01-02 00:00:00,100,104,100,103,900
2024-01-02 12:00:00,103.5,106,103.5,105,1100
2024-01-03 00:00:00,105,105.5,103,104,800
2024-01-03 12:00:00,104,108,104,107,1300
2024-01-04 00:00:00,107,110,106,109,1000
2024-01-04 12:00:00,109,109.5,107,108,700
2024-01-09 00:00:00,108,109,107,108,700
`

const tradesCSV = `trade_id,timestamp,symbol,side,entry_price,quantity,exit_price,exit_timestamp,stop_loss,take_profit,pnl,notes
T1,2024-01-01 10:00:00,AAPL,buy,99,10,104,2024-01-02 10:00:00,94,109,50,pullback to support
T2,2024-01-02 09:00:00,AAPL,sell,103,10,105,2024-01-02 15:00:00,106,97,-20,
T3,2024-01-03 09:00:00,AAPL,buy,104,10,107,2024-01-04 09:00:00,,,30,
T4,2024-01-04 09:00:00,AAPL,buy,108,5,,,,,,
T5,2024-01-10 09:00:00,AAPL,buy,108,5,,,,,,
`

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func fixtures(t *testing.T) (market, trades string) {
	t.Helper()
	dir := t.TempDir()
	market = filepath.Join(dir, "market.csv")
	trades = filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(market, []byte(marketCSV), 0o644))
	require.NoError(t, os.WriteFile(trades, []byte(tradesCSV), 0o644))
	return market, trades
}

func newTestReviewer(t *testing.T, opts Options) *Reviewer {
	t.Helper()
	r := New(opts, zerolog.Nop())
	r.newID = func() string { return "review-1" }
	t.Cleanup(r.Close)
	return r
}

func TestAnalyzePeriod(t *testing.T) {
	market, trades := fixtures(t)
	r := newTestReviewer(t, Options{Workers: 2})

	rev, err := r.AnalyzePeriod(context.Background(), Request{
		Symbol: "AAPL", MarketDataPath: market, TradesPath: trades, Start: start, End: end,
	})
	require.NoError(t, err)

	assert.Equal(t, "review-1", rev.ID)
	assert.Equal(t, "AAPL", rev.Symbol)
	assert.Equal(t, start, rev.PeriodStart)
	assert.Equal(t, end, rev.PeriodEnd)

	// The candle on Jan 9 and trade T5 fall outside the period.
	assert.Equal(t, []float64{99, 103}, rev.MarketContext.SupportLevels)
	assert.Equal(t, []float64{106, 110}, rev.MarketContext.ResistanceLevels)
	assert.Equal(t, models.TrendBullish, rev.MarketContext.Trend)
	require.Len(t, rev.Trades, 4)
	require.Len(t, rev.Evaluations, 4)
	for i, e := range rev.Evaluations {
		assert.Equal(t, rev.Trades[i].ID, e.TradeID)
	}
	assert.Equal(t, evaluation.EvaluateTrades(rev.Trades, &rev.MarketContext), rev.Evaluations)

	p := rev.Performance
	assert.Equal(t, 4.0, p[metrics.KeyTotalTrades])
	assert.Equal(t, 3.0, p[metrics.KeyClosedTrades])
	assert.Equal(t, 1.0, p[metrics.KeyOpenTrades])
	assert.InDelta(t, 60.0, p[metrics.KeyTotalPnL], 1e-9)
	assert.InDelta(t, 20.0, p[metrics.KeyAvgPnL], 1e-9)
	assert.InDelta(t, 66.67, p[metrics.KeyWinRate], 0.01)
	assert.InDelta(t, 20.0, p[metrics.KeyMaxDrawdown], 1e-9)
	assert.InDelta(t, 4.0, p[metrics.KeyProfitFactor], 1e-9)
	assert.Equal(t, 3.0, p[metrics.KeyTradesWithTrend])
	assert.Equal(t, 1.0, p[metrics.KeyTradesAgainstTrend])

	assert.Contains(t, rev.Warnings, "Trade T3: No stop loss defined")
	assert.Contains(t, rev.Warnings, "Trade T4: No take profit defined")
}

func TestAnalyzePeriod_MissingFile(t *testing.T) {
	_, trades := fixtures(t)
	r := newTestReviewer(t, Options{})

	_, err := r.AnalyzePeriod(context.Background(), Request{
		Symbol: "AAPL", MarketDataPath: filepath.Join(t.TempDir(), "missing.csv"), TradesPath: trades, Start: start, End: end,
	})
	var dataErr *apperrors.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "candles", dataErr.DataType)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReview_EmptyWindows(t *testing.T) {
	r := newTestReviewer(t, Options{})
	candles := []models.Candle{{Timestamp: start, Open: 1, High: 1, Low: 1, Close: 1}}
	trades := []models.Trade{{ID: "T1", Timestamp: start, Symbol: "AAPL", Side: models.SideBuy, EntryPrice: 1, Quantity: 1}}

	later := end.AddDate(0, 1, 0)
	_, err := r.Review(context.Background(), "AAPL", candles, trades, later, later.AddDate(0, 0, 5))
	assert.ErrorIs(t, err, apperrors.ErrNoMarketData)

	_, err = r.Review(context.Background(), "AAPL", candles, nil, start, end)
	assert.ErrorIs(t, err, apperrors.ErrNoTrades)
	assert.Contains(t, err.Error(), "2024-01-01 to 2024-01-05")
}

func TestReview_SingleCandleUsesFallbacks(t *testing.T) {
	r := newTestReviewer(t, Options{})
	candles := []models.Candle{{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}}
	trades := []models.Trade{{ID: "T1", Timestamp: start, Symbol: "AAPL", Side: models.SideBuy, EntryPrice: 100, Quantity: 1}}

	rev, err := r.Review(context.Background(), "AAPL", candles, trades, start, end)
	require.NoError(t, err)
	assert.Equal(t, models.TrendNeutral, rev.MarketContext.Trend)
	assert.Len(t, rev.MarketContext.Fallbacks, 3)
	assert.True(t, rev.Evaluations[0].AlignedWithTrend)
}

func TestReview_CapsTrades(t *testing.T) {
	r := newTestReviewer(t, Options{MaxTrades: 2})
	candles := []models.Candle{{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}}
	var trades []models.Trade
	for _, id := range []string{"A", "B", "C"} {
		trades = append(trades, models.Trade{ID: id, Timestamp: start, Symbol: "AAPL", Side: models.SideBuy, EntryPrice: 100, Quantity: 1})
	}

	rev, err := r.Review(context.Background(), "AAPL", candles, trades, start, end)
	require.NoError(t, err)
	require.Len(t, rev.Trades, 2)
	assert.Equal(t, "B", rev.Trades[1].ID)
	assert.True(t, strings.HasPrefix(rev.Warnings[0], "Reviewing the first 2 of 3 trades"))
	assert.Len(t, trades, 3)
}

func TestReview_UsesContextLogger(t *testing.T) {
	market, trades := fixtures(t)
	r := newTestReviewer(t, Options{Workers: 1})

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), zerolog.New(&buf).Level(zerolog.DebugLevel))
	_, err := r.AnalyzePeriod(ctx, Request{
		Symbol: "AAPL", MarketDataPath: market, TradesPath: trades, Start: start, End: end,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"operation":"ingest"`)
	assert.Contains(t, out, `"operation":"analyze"`)
	assert.Contains(t, out, `"operation":"evaluate"`)
	assert.Contains(t, out, `"review_id":"review-1"`)
	assert.Contains(t, out, `"event":"review"`)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.NumLevels = 2
	cfg.Analysis.FitMode = "ols"
	cfg.Analysis.MaxTrades = 9
	cfg.Analysis.Workers = 3

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 2, opts.Analysis.NumLevels)
	assert.Equal(t, "ols", string(opts.Analysis.FitMode))
	assert.Equal(t, 9, opts.MaxTrades)
	assert.Equal(t, 3, opts.Workers)

	r := newTestReviewer(t, opts)
	assert.Equal(t, opts.Analysis, r.Analyzer().Options())
}

func TestMarketContext(t *testing.T) {
	r := newTestReviewer(t, Options{})
	_, err := r.MarketContext("AAPL", nil, start, end)
	assert.ErrorIs(t, err, apperrors.ErrNoMarketData)
}
