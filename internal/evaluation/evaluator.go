package evaluation

import (
	"context"

	"trade-review/internal/models"
	"trade-review/internal/performance"
)

// Evaluator evaluates batches of trades on a worker pool. Results keep the
// order of the input trades, so the output is identical to EvaluateTrades.
type Evaluator struct {
	pool *performance.WorkerPool
}

// NewEvaluator starts an evaluator with the given number of workers.
// workers <= 0 uses one worker per CPU.
func NewEvaluator(workers int) *Evaluator {
	pool := performance.NewWorkerPool(workers)
	pool.Start()
	return &Evaluator{pool: pool}
}

// Evaluate evaluates every trade against mc.
func (e *Evaluator) Evaluate(ctx context.Context, trades []models.Trade, mc *models.MarketContext) ([]models.TradeEvaluation, error) {
	if len(trades) < 2 {
		return EvaluateTrades(trades, mc), nil
	}
	return performance.Map(ctx, e.pool, trades, func(t models.Trade) models.TradeEvaluation {
		return EvaluateTrade(t, mc)
	})
}

// Stats exposes the underlying pool statistics.
func (e *Evaluator) Stats() performance.PoolStats {
	return e.pool.Stats()
}

// Close stops the worker pool.
func (e *Evaluator) Close() {
	e.pool.Stop()
}
