package report

import (
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"trade-review/internal/models"
)

// Metric is a performance value that encodes non-finite numbers as strings.
type Metric float64

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	if s, ok := nonFinite(float64(m)); ok {
		return json.Marshal(s)
	}
	return json.Marshal(float64(m))
}

// MarshalYAML implements yaml.Marshaler.
func (m Metric) MarshalYAML() (interface{}, error) {
	if s, ok := nonFinite(float64(m)); ok {
		return s, nil
	}
	return float64(m), nil
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsInf(v, 1):
		return "inf", true
	case math.IsInf(v, -1):
		return "-inf", true
	case math.IsNaN(v):
		return "nan", true
	}
	return "", false
}

// Document is the serialized form of a TradeReview.
type Document struct {
	ID            string                   `json:"id" yaml:"id"`
	PeriodStart   time.Time                `json:"period_start" yaml:"period_start"`
	PeriodEnd     time.Time                `json:"period_end" yaml:"period_end"`
	Symbol        string                   `json:"symbol" yaml:"symbol"`
	MarketContext models.MarketContext     `json:"market_context" yaml:"market_context"`
	Trades        []models.Trade           `json:"trades" yaml:"trades"`
	Evaluations   []models.TradeEvaluation `json:"evaluations" yaml:"evaluations"`
	Performance   map[string]Metric        `json:"overall_performance" yaml:"overall_performance"`
	Warnings      []string                 `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewDocument converts rev for serialization.
func NewDocument(rev *models.TradeReview) Document {
	perf := make(map[string]Metric, len(rev.Performance))
	for k, v := range rev.Performance {
		perf[k] = Metric(v)
	}
	return Document{
		ID:            rev.ID,
		PeriodStart:   rev.PeriodStart,
		PeriodEnd:     rev.PeriodEnd,
		Symbol:        rev.Symbol,
		MarketContext: rev.MarketContext,
		Trades:        rev.Trades,
		Evaluations:   rev.Evaluations,
		Performance:   perf,
		Warnings:      rev.Warnings,
	}
}

// WriteJSON writes rev as indented JSON.
func WriteJSON(w io.Writer, rev *models.TradeReview) error {
	return EncodeJSON(w, NewDocument(rev))
}

// EncodeJSON writes any value as indented JSON.
func EncodeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteYAML writes rev as YAML.
func WriteYAML(w io.Writer, rev *models.TradeReview) error {
	return EncodeYAML(w, NewDocument(rev))
}

// EncodeYAML writes any value as YAML with two-space indentation.
func EncodeYAML(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

type evaluationRow struct {
	TradeID             string `csv:"trade_id"`
	EntryQuality        string `csv:"entry_quality"`
	ExitQuality         string `csv:"exit_quality"`
	RiskRewardRatio     string `csv:"risk_reward_ratio"`
	AlignedWithTrend    bool   `csv:"aligned_with_trend"`
	ExecutionDiscipline string `csv:"execution_discipline"`
	KeyObservations     string `csv:"key_observations"`
}

// WriteEvaluationsCSV writes one row per evaluation. Observations are joined with "; ".
func WriteEvaluationsCSV(w io.Writer, evals []models.TradeEvaluation) error {
	rows := make([]*evaluationRow, len(evals))
	for i, e := range evals {
		row := &evaluationRow{
			TradeID:             e.TradeID,
			EntryQuality:        string(e.EntryQuality),
			AlignedWithTrend:    e.AlignedWithTrend,
			ExecutionDiscipline: string(e.ExecutionDiscipline),
			KeyObservations:     strings.Join(e.KeyObservations, "; "),
		}
		if e.ExitQuality != nil {
			row.ExitQuality = string(*e.ExitQuality)
		}
		if e.RiskRewardRatio != nil {
			row.RiskRewardRatio = strconv.FormatFloat(*e.RiskRewardRatio, 'f', 4, 64)
		}
		rows[i] = row
	}
	return gocsv.Marshal(&rows, w)
}
