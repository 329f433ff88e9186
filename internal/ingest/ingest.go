// Package ingest loads market data and trade logs from CSV files.
//
// Market data files need the columns timestamp, open, high, low, close and
// volume. Trade logs need trade_id, timestamp, symbol, side, entry_price and
// quantity, and may carry exit_price, exit_timestamp, stop_loss, take_profit,
// pnl and notes. Empty optional cells are treated as absent.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "trade-review/internal/errors"
	"trade-review/internal/models"
)

// Required column sets.
var (
	CandleColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}
	TradeColumns  = []string{"trade_id", "timestamp", "symbol", "side", "entry_price", "quantity"}
)

var utf8BOM = []byte("\ufeff")

// TimestampLayouts are tried in order when parsing timestamp cells.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type candleRow struct {
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

type tradeRow struct {
	TradeID       string `csv:"trade_id"`
	Timestamp     string `csv:"timestamp"`
	Symbol        string `csv:"symbol"`
	Side          string `csv:"side"`
	EntryPrice    string `csv:"entry_price"`
	Quantity      string `csv:"quantity"`
	ExitPrice     string `csv:"exit_price"`
	ExitTimestamp string `csv:"exit_timestamp"`
	StopLoss      string `csv:"stop_loss"`
	TakeProfit    string `csv:"take_profit"`
	PnL           string `csv:"pnl"`
	Notes         string `csv:"notes"`
}

// LoadCandles reads OHLCV candles from a CSV file, keeping file order.
func LoadCandles(path string) ([]models.Candle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read market data file")
	}
	return ReadCandles(bytes.NewReader(data), path)
}

// ReadCandles decodes candles from r. source names the input in errors.
func ReadCandles(r io.Reader, source string) ([]models.Candle, error) {
	var rows []*candleRow
	if err := decode(r, source, CandleColumns, &rows); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := row.candle()
		if err != nil {
			return nil, &apperrors.RowError{Source: source, Row: i + 1, Err: err}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// LoadTrades reads trades from a CSV file, keeping file order.
func LoadTrades(path string) ([]models.Trade, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read trade log")
	}
	return ReadTrades(bytes.NewReader(data), path)
}

// ReadTrades decodes trades from r. source names the input in errors.
func ReadTrades(r io.Reader, source string) ([]models.Trade, error) {
	var rows []*tradeRow
	if err := decode(r, source, TradeColumns, &rows); err != nil {
		return nil, err
	}

	trades := make([]models.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := row.trade()
		if err != nil {
			return nil, &apperrors.RowError{Source: source, Row: i + 1, Err: err}
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// WriteTrades encodes trades as CSV with the full trade column set.
func WriteTrades(w io.Writer, trades []models.Trade) error {
	rows := make([]*tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = newTradeRow(t)
	}
	return gocsv.Marshal(&rows, w)
}

// ParseTimestamp parses s using the first matching layout in TimestampLayouts.
// Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// decode checks the header for the required columns, then unmarshals rows into out.
// A leading byte order mark and blanks around header names are ignored.
func decode(r io.Reader, source string, required []string, out interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return apperrors.Wrapf(err, "failed to read %s", source)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return apperrors.Wrapf(err, "failed to parse %s", source)
	}
	if len(records) == 0 {
		return apperrors.NewColumnError(source, required)
	}

	header := records[0]
	present := make(map[string]bool, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		present[header[i]] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewColumnError(source, missing)
	}

	var normalized bytes.Buffer
	w := csv.NewWriter(&normalized)
	if err := w.WriteAll(records); err != nil {
		return apperrors.Wrapf(err, "failed to normalize %s", source)
	}
	if err := gocsv.Unmarshal(&normalized, out); err != nil {
		return apperrors.Wrapf(err, "failed to decode %s", source)
	}
	return nil
}

func (r *candleRow) candle() (models.Candle, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return models.Candle{}, apperrors.NewValidationError("timestamp", r.Timestamp, err.Error())
	}

	c := models.Candle{Timestamp: ts}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", r.Open, &c.Open},
		{"high", r.High, &c.High},
		{"low", r.Low, &c.Low},
		{"close", r.Close, &c.Close},
		{"volume", r.Volume, &c.Volume},
	} {
		v, err := parseFloat(f.name, f.raw)
		if err != nil {
			return models.Candle{}, err
		}
		*f.dst = v
	}

	if err := c.Validate(); err != nil {
		return models.Candle{}, err
	}
	return c, nil
}

func (r *tradeRow) trade() (models.Trade, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return models.Trade{}, apperrors.NewValidationError("timestamp", r.Timestamp, err.Error())
	}
	entry, err := parseFloat("entry_price", r.EntryPrice)
	if err != nil {
		return models.Trade{}, err
	}
	qty, err := parseFloat("quantity", r.Quantity)
	if err != nil {
		return models.Trade{}, err
	}

	p := models.TradeParams{
		ID:         r.TradeID,
		Timestamp:  ts,
		Symbol:     r.Symbol,
		Side:       r.Side,
		EntryPrice: entry,
		Quantity:   qty,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  **float64
	}{
		{"exit_price", r.ExitPrice, &p.ExitPrice},
		{"stop_loss", r.StopLoss, &p.StopLoss},
		{"take_profit", r.TakeProfit, &p.TakeProfit},
		{"pnl", r.PnL, &p.PnL},
	} {
		if *f.dst, err = parseOptionalFloat(f.name, f.raw); err != nil {
			return models.Trade{}, err
		}
	}
	if s := strings.TrimSpace(r.ExitTimestamp); s != "" {
		exitTS, err := ParseTimestamp(s)
		if err != nil {
			return models.Trade{}, apperrors.NewValidationError("exit_timestamp", s, err.Error())
		}
		p.ExitTimestamp = &exitTS
	}
	if s := strings.TrimSpace(r.Notes); s != "" {
		p.Notes = &s
	}

	return models.NewTrade(p)
}

func newTradeRow(t models.Trade) *tradeRow {
	row := &tradeRow{
		TradeID:    t.ID,
		Timestamp:  t.Timestamp.Format(time.RFC3339),
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		EntryPrice: formatFloat(t.EntryPrice),
		Quantity:   formatFloat(t.Quantity),
		ExitPrice:  formatOptionalFloat(t.ExitPrice),
		StopLoss:   formatOptionalFloat(t.StopLoss),
		TakeProfit: formatOptionalFloat(t.TakeProfit),
		PnL:        formatOptionalFloat(t.PnL),
	}
	if t.ExitTimestamp != nil {
		row.ExitTimestamp = t.ExitTimestamp.Format(time.RFC3339)
	}
	if t.Notes != nil {
		row.Notes = *t.Notes
	}
	return row
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperrors.NewValidationError(field, raw, "must be a number")
	}
	return v, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseFloat(field, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
