// Package journal keeps an in-memory book of manually entered trades.
package journal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "trade-review/internal/errors"
	"trade-review/internal/models"
)

// IDPrefix prefixes generated trade ids.
const IDPrefix = "MANUAL-"

// Entry holds the fields of a manually entered trade. A nil Timestamp means now.
type Entry struct {
	Symbol        string
	Side          string
	EntryPrice    float64
	Quantity      float64
	Timestamp     *time.Time
	ExitPrice     *float64
	ExitTimestamp *time.Time
	StopLoss      *float64
	TakeProfit    *float64
	Notes         *string
}

// TradeFilter narrows List results. Zero-valued fields do not filter.
type TradeFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Side      models.Side
	Limit     int
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the time source used for trades entered without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		b.now = now
	}
}

// Book is a session-scoped trade log. It is safe for concurrent use.
type Book struct {
	mu      sync.RWMutex
	trades  []models.Trade
	counter int
	now     func() time.Time
}

// NewBook creates an empty book.
func NewBook(opts ...Option) *Book {
	b := &Book{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add validates e, assigns the next MANUAL-NNNN id and appends the trade.
// Realized P&L is computed when an exit price is given.
func (b *Book) Add(e Entry) (models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now()
	if e.Timestamp != nil {
		ts = *e.Timestamp
	}

	p := models.TradeParams{
		ID:            fmt.Sprintf("%s%04d", IDPrefix, b.counter+1),
		Timestamp:     ts,
		Symbol:        strings.ToUpper(strings.TrimSpace(e.Symbol)),
		Side:          e.Side,
		EntryPrice:    e.EntryPrice,
		Quantity:      e.Quantity,
		ExitPrice:     e.ExitPrice,
		ExitTimestamp: e.ExitTimestamp,
		StopLoss:      e.StopLoss,
		TakeProfit:    e.TakeProfit,
		Notes:         e.Notes,
	}
	if e.ExitPrice != nil {
		side := models.Side(strings.ToLower(strings.TrimSpace(e.Side)))
		pnl := models.RealizedPnL(side, e.EntryPrice, *e.ExitPrice, e.Quantity)
		p.PnL = &pnl
	}

	t, err := models.NewTrade(p)
	if err != nil {
		return models.Trade{}, err
	}
	b.counter++
	b.trades = append(b.trades, t)
	return t, nil
}

// Import appends existing trades, keeping their ids. Ids must be unique in the
// book. Imported MANUAL- ids advance the counter so later Adds do not collide.
func (b *Book) Import(trades ...models.Trade) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]bool, len(b.trades)+len(trades))
	for _, t := range b.trades {
		seen[t.ID] = true
	}
	for _, t := range trades {
		if seen[t.ID] {
			return apperrors.NewValidationError("trade_id", t.ID, "duplicate trade id")
		}
		seen[t.ID] = true
	}
	for _, t := range trades {
		if n, ok := manualSeq(t.ID); ok && n > b.counter {
			b.counter = n
		}
	}
	b.trades = append(b.trades, trades...)
	return nil
}

// Update applies a to the trade with the given id and stores the amended copy.
// P&L is recomputed when the exit price changes.
func (b *Book) Update(id string, a models.TradeAmendment) (models.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return models.Trade{}, fmt.Errorf("%w: %s", apperrors.ErrTradeNotFound, id)
	}
	updated, err := b.trades[i].Amend(a)
	if err != nil {
		return models.Trade{}, err
	}
	b.trades[i] = updated
	return updated, nil
}

// Get returns the trade with the given id.
func (b *Book) Get(id string) (models.Trade, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.indexOf(id)
	if i < 0 {
		return models.Trade{}, fmt.Errorf("%w: %s", apperrors.ErrTradeNotFound, id)
	}
	return b.trades[i], nil
}

// Delete removes the trade with the given id.
func (b *Book) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrTradeNotFound, id)
	}
	b.trades = append(b.trades[:i:i], b.trades[i+1:]...)
	return nil
}

// List returns the trades matching f, ordered by entry timestamp.
func (b *Book) List(f TradeFilter) []models.Trade {
	b.mu.RLock()
	out := make([]models.Trade, 0, len(b.trades))
	symbol := strings.ToUpper(strings.TrimSpace(f.Symbol))
	for _, t := range b.trades {
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		if f.Side != "" && t.Side != f.Side {
			continue
		}
		if !f.StartDate.IsZero() && t.Timestamp.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && t.Timestamp.After(f.EndDate) {
			continue
		}
		out = append(out, t)
	}
	b.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Clear removes the trades for symbol, or every trade when symbol is empty.
// Clearing everything also restarts id numbering.
func (b *Book) Clear(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		b.trades = nil
		b.counter = 0
		return
	}

	kept := b.trades[:0]
	for _, t := range b.trades {
		if t.Symbol != symbol {
			kept = append(kept, t)
		}
	}
	b.trades = kept
}

// Len returns the number of trades in the book.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.trades)
}

func manualSeq(id string) (int, bool) {
	if !strings.HasPrefix(id, IDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, IDPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (b *Book) indexOf(id string) int {
	for i, t := range b.trades {
		if t.ID == id {
			return i
		}
	}
	return -1
}
