package models

import (
	"math"
	"strings"
	"time"

	apperrors "trade-review/internal/errors"
)

// Trade represents a single trade record. Optional fields are nil when absent.
// A Trade is a value: amendments produce a new Trade via Amend.
type Trade struct {
	ID            string     `json:"trade_id" yaml:"trade_id"`
	Timestamp     time.Time  `json:"timestamp" yaml:"timestamp"`
	Symbol        string     `json:"symbol" yaml:"symbol"`
	Side          Side       `json:"side" yaml:"side"`
	EntryPrice    float64    `json:"entry_price" yaml:"entry_price"`
	Quantity      float64    `json:"quantity" yaml:"quantity"`
	ExitPrice     *float64   `json:"exit_price" yaml:"exit_price"`
	ExitTimestamp *time.Time `json:"exit_timestamp" yaml:"exit_timestamp"`
	StopLoss      *float64   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit    *float64   `json:"take_profit" yaml:"take_profit"`
	PnL           *float64   `json:"pnl" yaml:"pnl"`
	Notes         *string    `json:"notes" yaml:"notes"`
}

// TradeParams holds the fields needed to construct a Trade.
type TradeParams struct {
	ID            string
	Timestamp     time.Time
	Symbol        string
	Side          string
	EntryPrice    float64
	Quantity      float64
	ExitPrice     *float64
	ExitTimestamp *time.Time
	StopLoss      *float64
	TakeProfit    *float64
	PnL           *float64
	Notes         *string
}

// NewTrade validates p and returns the resulting Trade.
// Side is case-insensitive; symbol and notes are trimmed.
func NewTrade(p TradeParams) (Trade, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Trade{}, apperrors.NewValidationError("trade_id", p.ID, "must not be empty")
	}
	symbol := strings.TrimSpace(p.Symbol)
	if symbol == "" {
		return Trade{}, apperrors.NewValidationError("symbol", p.Symbol, "must not be empty")
	}
	if p.Timestamp.IsZero() {
		return Trade{}, apperrors.NewValidationError("timestamp", p.Timestamp, "must be set")
	}
	side := Side(strings.ToLower(strings.TrimSpace(p.Side)))
	if !side.Valid() {
		return Trade{}, apperrors.NewValidationError("side", p.Side, "must be buy or sell")
	}
	if !positive(p.EntryPrice) {
		return Trade{}, apperrors.NewValidationError("entry_price", p.EntryPrice, "must be a positive number")
	}
	if !positive(p.Quantity) {
		return Trade{}, apperrors.NewValidationError("quantity", p.Quantity, "must be a positive number")
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"exit_price", p.ExitPrice},
		{"stop_loss", p.StopLoss},
		{"take_profit", p.TakeProfit},
	} {
		if f.v != nil && !positive(*f.v) {
			return Trade{}, apperrors.NewValidationError(f.name, *f.v, "must be a positive number")
		}
	}
	if p.PnL != nil && !finite(*p.PnL) {
		return Trade{}, apperrors.NewValidationError("pnl", *p.PnL, "must be finite")
	}

	t := Trade{
		ID:            id,
		Timestamp:     p.Timestamp,
		Symbol:        symbol,
		Side:          side,
		EntryPrice:    p.EntryPrice,
		Quantity:      p.Quantity,
		ExitPrice:     copyFloat(p.ExitPrice),
		ExitTimestamp: copyTime(p.ExitTimestamp),
		StopLoss:      copyFloat(p.StopLoss),
		TakeProfit:    copyFloat(p.TakeProfit),
		PnL:           copyFloat(p.PnL),
	}
	if p.Notes != nil {
		if n := strings.TrimSpace(*p.Notes); n != "" {
			t.Notes = &n
		}
	}
	return t, nil
}

// IsOpen returns true if the trade has no exit price.
func (t Trade) IsOpen() bool {
	return t.ExitPrice == nil
}

// IsClosed returns true if the trade has an exit price.
func (t Trade) IsClosed() bool {
	return t.ExitPrice != nil
}

// HasNotes returns true if the trade carries a non-empty note.
func (t Trade) HasNotes() bool {
	return t.Notes != nil && *t.Notes != ""
}

// TradeAmendment lists fields to change on an existing trade. Nil fields are left as they are.
type TradeAmendment struct {
	ExitPrice     *float64
	ExitTimestamp *time.Time
	StopLoss      *float64
	TakeProfit    *float64
	Notes         *string
}

// Amend returns a copy of t with the amendment applied. When the exit price
// changes, realized P&L is recomputed from entry, exit and quantity.
func (t Trade) Amend(a TradeAmendment) (Trade, error) {
	p := t.params()
	if a.ExitPrice != nil {
		p.ExitPrice = a.ExitPrice
		pnl := RealizedPnL(t.Side, t.EntryPrice, *a.ExitPrice, t.Quantity)
		p.PnL = &pnl
	}
	if a.ExitTimestamp != nil {
		p.ExitTimestamp = a.ExitTimestamp
	}
	if a.StopLoss != nil {
		p.StopLoss = a.StopLoss
	}
	if a.TakeProfit != nil {
		p.TakeProfit = a.TakeProfit
	}
	if a.Notes != nil {
		p.Notes = a.Notes
	}
	return NewTrade(p)
}

func (t Trade) params() TradeParams {
	return TradeParams{
		ID:            t.ID,
		Timestamp:     t.Timestamp,
		Symbol:        t.Symbol,
		Side:          string(t.Side),
		EntryPrice:    t.EntryPrice,
		Quantity:      t.Quantity,
		ExitPrice:     t.ExitPrice,
		ExitTimestamp: t.ExitTimestamp,
		StopLoss:      t.StopLoss,
		TakeProfit:    t.TakeProfit,
		PnL:           t.PnL,
		Notes:         t.Notes,
	}
}

// RealizedPnL returns the profit or loss of a position closed at exit.
func RealizedPnL(side Side, entry, exit, quantity float64) float64 {
	if side == SideSell {
		return (entry - exit) * quantity
	}
	return (exit - entry) * quantity
}

// Validate checks the OHLCV invariants of a candle.
func (c Candle) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	} {
		if !finite(f.v) {
			return apperrors.NewValidationError(f.name, f.v, "must be finite")
		}
	}
	if c.Volume < 0 {
		return apperrors.NewValidationError("volume", c.Volume, "must not be negative")
	}
	if c.High < c.Low {
		return apperrors.NewValidationError("high", c.High, "must not be below low")
	}
	if c.High < math.Max(c.Open, c.Close) {
		return apperrors.NewValidationError("high", c.High, "must not be below open or close")
	}
	if c.Low > math.Min(c.Open, c.Close) {
		return apperrors.NewValidationError("low", c.Low, "must not be above open or close")
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Time returns a pointer to t.
func Time(t time.Time) *time.Time {
	return &t
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
