// Package review runs the full trade review pipeline for a symbol and period:
// ingest, filter, analyze, evaluate and aggregate.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"trade-review/internal/analysis"
	"trade-review/internal/analysis/indicators"
	"trade-review/internal/config"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/evaluation"
	"trade-review/internal/ingest"
	"trade-review/internal/logging"
	"trade-review/internal/metrics"
	"trade-review/internal/models"
	"trade-review/internal/tracing"
)

// DefaultMaxTrades caps the number of trades evaluated in one review.
const DefaultMaxTrades = 100

// Options configures a Reviewer.
type Options struct {
	Analysis  analysis.Options
	MaxTrades int
	Workers   int
}

// OptionsFromConfig maps the analysis section of cfg to reviewer options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Analysis: analysis.Options{
			NumLevels: cfg.Analysis.NumLevels,
			FitMode:   indicators.FitMode(cfg.Analysis.FitMode),
		},
		MaxTrades: cfg.Analysis.MaxTrades,
		Workers:   cfg.Analysis.Workers,
	}
}

// Request describes a file-backed review.
type Request struct {
	Symbol         string
	MarketDataPath string
	TradesPath     string
	Start          time.Time
	End            time.Time
}

// Reviewer orchestrates a review. It keeps no state between reviews and may
// be shared across goroutines. Close releases its evaluation workers.
type Reviewer struct {
	analyzer  *analysis.Analyzer
	evaluator *evaluation.Evaluator
	maxTrades int
	logger    zerolog.Logger
	newID     func() string
}

// New creates a Reviewer.
func New(opts Options, logger zerolog.Logger) *Reviewer {
	if opts.MaxTrades <= 0 {
		opts.MaxTrades = DefaultMaxTrades
	}
	return &Reviewer{
		analyzer:  analysis.NewAnalyzer(opts.Analysis),
		evaluator: evaluation.NewEvaluator(opts.Workers),
		maxTrades: opts.MaxTrades,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Close stops the evaluation workers.
func (r *Reviewer) Close() {
	r.evaluator.Close()
}

// Analyzer returns the market context analyzer used by the reviewer.
func (r *Reviewer) Analyzer() *analysis.Analyzer {
	return r.analyzer
}

// AnalyzePeriod loads both CSV files and reviews the trades entered within
// [req.Start, req.End].
func (r *Reviewer) AnalyzePeriod(ctx context.Context, req Request) (rev *models.TradeReview, err error) {
	ctx, span := tracing.Start(ctx, "review.AnalyzePeriod", attribute.String("symbol", req.Symbol))
	defer func() {
		tracing.Fail(span, err)
		span.End()
	}()

	ingestLog := logging.WithOperation(logging.WithSymbol(r.loggerFor(ctx), req.Symbol), "ingest")
	_, loadSpan := tracing.Start(ctx, "review.ingest")
	candles, err := ingest.LoadCandles(req.MarketDataPath)
	if err != nil {
		tracing.Fail(loadSpan, err)
		loadSpan.End()
		return nil, apperrors.NewDataError("candles", req.Symbol, "failed to load market data", err)
	}
	logging.LogIngest(ingestLog, "candles", req.MarketDataPath, len(candles))

	trades, err := ingest.LoadTrades(req.TradesPath)
	if err != nil {
		tracing.Fail(loadSpan, err)
		loadSpan.End()
		return nil, apperrors.NewDataError("trades", req.Symbol, "failed to load trades", err)
	}
	logging.LogIngest(ingestLog, "trades", req.TradesPath, len(trades))
	loadSpan.SetAttributes(attribute.Int("candles", len(candles)), attribute.Int("trades", len(trades)))
	loadSpan.End()

	return r.Review(ctx, req.Symbol, candles, trades, req.Start, req.End)
}

// Review runs the pipeline on already loaded data. Candles and trades outside
// [start, end] are ignored; an empty window for either is an error.
func (r *Reviewer) Review(ctx context.Context, symbol string, candles []models.Candle, trades []models.Trade, start, end time.Time) (rev *models.TradeReview, err error) {
	began := time.Now()
	id := r.newID()

	ctx, span := tracing.Start(ctx, "review.Review",
		attribute.String("symbol", symbol),
		attribute.String("review_id", id),
	)
	defer func() {
		tracing.Fail(span, err)
		span.End()
	}()

	logger := logging.WithReviewID(logging.WithSymbol(r.loggerFor(ctx), symbol), id)
	if traceID, ok := tracing.TraceID(ctx); ok {
		logger = logger.With().Str("trace_id", traceID).Logger()
	}

	window := ingest.FilterCandles(candles, start, end)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrNoMarketData, formatDay(start), formatDay(end))
	}
	inPeriod := ingest.FilterTrades(trades, start, end)
	if len(inPeriod) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrNoTrades, formatDay(start), formatDay(end))
	}

	var warnings []string
	if len(inPeriod) > r.maxTrades {
		warnings = append(warnings, fmt.Sprintf("Reviewing the first %d of %d trades in the period", r.maxTrades, len(inPeriod)))
		logger.Warn().Int("trades", len(inPeriod)).Int("max_trades", r.maxTrades).Msg("Trade count capped")
		inPeriod = inPeriod[:r.maxTrades]
	}
	warnings = append(warnings, ingest.ValidateTrades(inPeriod)...)

	_, analyzeSpan := tracing.Start(ctx, "review.analyze", attribute.Int("candles", len(window)))
	mc, err := r.analyzer.Analyze(symbol, window, start, end)
	if err != nil {
		tracing.Fail(analyzeSpan, err)
		analyzeSpan.End()
		return nil, err
	}
	analyzeSpan.SetAttributes(
		attribute.String("trend", string(mc.Trend)),
		attribute.Float64("trend_strength", mc.TrendStrength),
		attribute.StringSlice("fallbacks", mc.Fallbacks),
	)
	analyzeSpan.End()
	logging.LogMarketContext(logging.WithOperation(logger, "analyze"), string(mc.Trend), mc.TrendStrength, mc.Volatility, mc.Fallbacks)

	evalCtx, evalSpan := tracing.Start(ctx, "review.evaluate", attribute.Int("trades", len(inPeriod)))
	evalStart := time.Now()
	evals, err := r.evaluator.Evaluate(evalCtx, inPeriod, mc)
	if err != nil {
		tracing.Fail(evalSpan, err)
		evalSpan.End()
		return nil, apperrors.Wrap(err, "evaluating trades")
	}
	evalSpan.End()
	logging.LogEvaluation(logging.WithOperation(logger, "evaluate"), len(evals), r.evaluator.Stats().Workers, time.Since(evalStart))

	performance := metrics.Performance(inPeriod, evals)
	logging.LogReview(logger, symbol, len(inPeriod), performance[metrics.KeyWinRate], performance[metrics.KeyTotalPnL], time.Since(began))

	return &models.TradeReview{
		ID:            id,
		PeriodStart:   start,
		PeriodEnd:     end,
		Symbol:        symbol,
		MarketContext: *mc,
		Trades:        inPeriod,
		Evaluations:   evals,
		Performance:   performance,
		Warnings:      warnings,
	}, nil
}

// MarketContext analyzes the candles of symbol within [start, end].
func (r *Reviewer) MarketContext(symbol string, candles []models.Candle, start, end time.Time) (*models.MarketContext, error) {
	window := ingest.FilterCandles(candles, start, end)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrNoMarketData, formatDay(start), formatDay(end))
	}
	return r.analyzer.Analyze(symbol, window, start, end)
}

// loggerFor prefers a logger carried by ctx over the one the reviewer was built with.
func (r *Reviewer) loggerFor(ctx context.Context) zerolog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
