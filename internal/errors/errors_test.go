package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := Wrap(NewValidationError("quantity", -1.0, "must be positive"), "trade T1")

	assert.True(t, Is(err, ErrInvalidInput))
	var verr *ValidationError
	assert.True(t, As(err, &verr))
	assert.Equal(t, "quantity", verr.Field)
	assert.Equal(t, "trade T1: validation error: quantity (-1): must be positive", err.Error())
}

func TestColumnError(t *testing.T) {
	err := NewColumnError("trades.csv", []string{"side", "quantity"})
	assert.Equal(t, "trades.csv: missing required columns: [side, quantity]", err.Error())
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestRowError(t *testing.T) {
	inner := NewValidationError("entry_price", 0.0, "must be positive")
	err := &RowError{Source: "trades.csv", Row: 3, Err: inner}

	assert.Contains(t, err.Error(), "trades.csv row 3: ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDataError(t *testing.T) {
	err := NewDataError("candles", "AAPL", "empty window", ErrInsufficientData)
	assert.Equal(t, "data error [candles] AAPL: empty window: insufficient data", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientData)

	bare := NewDataError("candles", "AAPL", "empty window", nil)
	assert.Equal(t, "data error [candles] AAPL: empty window", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))

	err := Wrapf(ErrNoTrades, "period %s", "2024-01")
	assert.Equal(t, "period 2024-01: no trades in period", err.Error())
	assert.True(t, errors.Is(err, ErrNoTrades))
}
