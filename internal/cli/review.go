package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-review/internal/config"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/ingest"
	"trade-review/internal/logging"
	"trade-review/internal/models"
	"trade-review/internal/report"
	"trade-review/internal/review"
)

// formatCSV is accepted by evaluate in addition to the report formats.
const formatCSV = "csv"

// addReviewCommands adds the review, evaluate and context commands.
func addReviewCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newReviewCmd(app))
	rootCmd.AddCommand(newEvaluateCmd(app))
	rootCmd.AddCommand(newContextCmd(app))
}

func newReviewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review trades against the market context of a period",
		Long: `Review the trades entered within a period.

Loads candles and trades from CSV, analyzes the market context of the
period, evaluates every trade and prints the report with:
- Trend, volatility, support and resistance
- Win rate, P&L, drawdown and profit factor
- Per-trade entry, exit, risk/reward and discipline grades`,
		Example: `  trade-review review --symbol AAPL --market data.csv --trades trades.csv --start 2024-01-01 --end 2024-01-05
  trade-review review --symbol AAPL --market data.csv --trades trades.csv --format yaml
  trade-review review --json --evaluations-csv evals.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := reviewRequest(cmd, app.Config, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, output, app.Config.Report.Format, config.FormatText, config.FormatJSON, config.FormatYAML)
			if err != nil {
				return err
			}

			rev, err := runReview(cmd, app, req)
			if err != nil {
				return err
			}

			if path, _ := cmd.Flags().GetString("evaluations-csv"); path != "" {
				if err := writeFile(path, func(f *os.File) error {
					return report.WriteEvaluationsCSV(f, rev.Evaluations)
				}); err != nil {
					return err
				}
				app.Logger.Info().Str("path", path).Int("rows", len(rev.Evaluations)).Msg("Evaluations exported")
			}

			switch format {
			case config.FormatJSON:
				return report.WriteJSON(output.Writer(), rev)
			case config.FormatYAML:
				return report.WriteYAML(output.Writer(), rev)
			default:
				return report.WriteText(output.Writer(), rev, report.TextOptions{
					Color: app.Config.Report.Color && output.ColorEnabled(),
				})
			}
		},
	}

	addPeriodFlags(cmd)
	cmd.Flags().String("trades", "", "trade log CSV (default: data.trades_path)")
	cmd.Flags().String("format", "", "output format: text, json, yaml (default: report.format)")
	cmd.Flags().String("evaluations-csv", "", "also write per-trade evaluations to this CSV file")

	return cmd
}

func newEvaluateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Print per-trade evaluations for a period",
		Long: `Run the review pipeline and print only the per-trade evaluations.

Formats: text (table), json, yaml, csv.`,
		Example: `  trade-review evaluate --symbol AAPL --market data.csv --trades trades.csv
  trade-review evaluate --symbol AAPL --market data.csv --trades trades.csv --format csv > evals.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := reviewRequest(cmd, app.Config, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, output, config.FormatText, config.FormatText, config.FormatJSON, config.FormatYAML, formatCSV)
			if err != nil {
				return err
			}

			rev, err := runReview(cmd, app, req)
			if err != nil {
				return err
			}

			switch format {
			case config.FormatJSON:
				return report.EncodeJSON(output.Writer(), rev.Evaluations)
			case config.FormatYAML:
				return report.EncodeYAML(output.Writer(), rev.Evaluations)
			case formatCSV:
				return report.WriteEvaluationsCSV(output.Writer(), rev.Evaluations)
			}

			output.Bold("Trade Evaluations: %s (%s to %s)", rev.Symbol, report.FormatDate(rev.PeriodStart), report.FormatDate(rev.PeriodEnd))
			output.Println()

			table := NewTable(output, "Trade", "Side", "Entry", "Exit", "R/R", "With Trend", "Discipline")
			for i, e := range rev.Evaluations {
				exit, rr := "-", "-"
				if e.ExitQuality != nil {
					exit = string(*e.ExitQuality)
				}
				if e.RiskRewardRatio != nil {
					rr = report.FormatRatio(*e.RiskRewardRatio)
				}
				aligned := "no"
				if e.AlignedWithTrend {
					aligned = "yes"
				}
				table.AddRow(e.TradeID, strings.ToUpper(string(rev.Trades[i].Side)), string(e.EntryQuality), exit, rr, aligned, string(e.ExecutionDiscipline))
			}
			table.Render()

			for _, warn := range rev.Warnings {
				output.Warning("%s", warn)
			}
			return nil
		},
	}

	addPeriodFlags(cmd)
	cmd.Flags().String("trades", "", "trade log CSV (default: data.trades_path)")
	cmd.Flags().String("format", "", "output format: text, json, yaml, csv")

	return cmd
}

func newContextCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Analyze the market context of a period",
		Long: `Derive trend, volatility, support and resistance levels and average
volume from the candles of a period.`,
		Example: `  trade-review context --symbol AAPL --market data.csv --start 2024-01-01 --end 2024-01-31
  trade-review context --symbol AAPL --market data.csv --levels 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			req, err := periodRequest(cmd, app.Config, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd, output, config.FormatText, config.FormatText, config.FormatJSON, config.FormatYAML)
			if err != nil {
				return err
			}

			opts := review.OptionsFromConfig(app.Config)
			if cmd.Flags().Changed("levels") {
				levels, _ := cmd.Flags().GetInt("levels")
				if levels < 1 {
					return apperrors.NewValidationError("levels", levels, "must be at least 1")
				}
				opts.Analysis.NumLevels = levels
			}
			reviewer := review.New(opts, app.Logger)
			defer reviewer.Close()

			candles, err := ingest.LoadCandles(req.MarketDataPath)
			if err != nil {
				return err
			}
			logging.LogIngest(app.Logger, "candles", req.MarketDataPath, len(candles))

			mc, err := reviewer.MarketContext(req.Symbol, candles, req.Start, req.End)
			if err != nil {
				return err
			}

			switch format {
			case config.FormatJSON:
				return output.JSON(mc)
			case config.FormatYAML:
				return report.EncodeYAML(output.Writer(), mc)
			}
			showMarketContext(output, mc)
			return nil
		},
	}

	addPeriodFlags(cmd)
	cmd.Flags().Int("levels", 0, "number of support and resistance levels (default: analysis.num_levels)")
	cmd.Flags().String("format", "", "output format: text, json, yaml")

	return cmd
}

func showMarketContext(output *Output, mc *models.MarketContext) {
	output.Bold("Market Context: %s", mc.Symbol)
	output.Dim("%s to %s", report.FormatDate(mc.StartDate), report.FormatDate(mc.EndDate))
	output.Println()

	trend := strings.ToUpper(string(mc.Trend))
	switch mc.Trend {
	case models.TrendBullish:
		output.Success("  Trend:       %s (strength: %s)", trend, report.FormatFraction(mc.TrendStrength))
	case models.TrendBearish:
		output.Error("  Trend:       %s (strength: %s)", trend, report.FormatFraction(mc.TrendStrength))
	default:
		output.Warning("  Trend:       %s (strength: %s)", trend, report.FormatFraction(mc.TrendStrength))
	}
	output.Printf("  Volatility:  %s (ATR)\n", report.FormatCurrency(mc.Volatility))
	output.Printf("  Support:     %s\n", levelsOrNone(mc.SupportLevels))
	output.Printf("  Resistance:  %s\n", levelsOrNone(mc.ResistanceLevels))
	output.Printf("  Avg Volume:  %s\n", report.FormatVolume(mc.AverageVolume))
	for _, f := range mc.Fallbacks {
		output.Warning("  Fallback:    %s", f)
	}
}

func levelsOrNone(levels []float64) string {
	if len(levels) == 0 {
		return "none"
	}
	return report.FormatLevels(levels)
}

// runReview executes a file-backed review with a reviewer built from the config.
func runReview(cmd *cobra.Command, app *App, req review.Request) (*models.TradeReview, error) {
	reviewer := app.NewReviewer()
	defer reviewer.Close()

	ctx := logging.WithLogger(cmd.Context(), app.Logger)
	return reviewer.AnalyzePeriod(ctx, req)
}

// addPeriodFlags adds the symbol, market data and period flags shared by the
// analysis commands.
func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("symbol", "s", "", "symbol to review (default: data.symbol)")
	cmd.Flags().String("market", "", "market data CSV (default: data.market_data_path)")
	cmd.Flags().String("start", "", "period start (default: end minus analysis.lookback_days)")
	cmd.Flags().String("end", "", "period end, inclusive (default: now)")
}

// periodRequest resolves symbol, market data path and period from flags and config.
func periodRequest(cmd *cobra.Command, cfg *config.Config, now time.Time) (review.Request, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	if symbol == "" {
		symbol = cfg.Data.Symbol
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return review.Request{}, fmt.Errorf("symbol required: use --symbol or set data.symbol")
	}

	market, _ := cmd.Flags().GetString("market")
	if market == "" {
		market = cfg.Data.MarketDataPath
	}
	if market == "" {
		return review.Request{}, fmt.Errorf("market data required: use --market or set data.market_data_path")
	}

	start, end, err := resolvePeriod(cmd, cfg.Analysis.LookbackDays, now)
	if err != nil {
		return review.Request{}, err
	}

	return review.Request{
		Symbol:         symbol,
		MarketDataPath: market,
		Start:          start,
		End:            end,
	}, nil
}

// reviewRequest extends periodRequest with the trade log path.
func reviewRequest(cmd *cobra.Command, cfg *config.Config, now time.Time) (review.Request, error) {
	req, err := periodRequest(cmd, cfg, now)
	if err != nil {
		return req, err
	}
	trades, _ := cmd.Flags().GetString("trades")
	if trades == "" {
		trades = cfg.Data.TradesPath
	}
	if trades == "" {
		return req, fmt.Errorf("trade log required: use --trades or set data.trades_path")
	}
	req.TradesPath = trades
	return req, nil
}

// resolvePeriod reads --start and --end. A missing end is now; a missing start
// is lookbackDays before the end. A date-only end covers the whole day.
func resolvePeriod(cmd *cobra.Command, lookbackDays int, now time.Time) (time.Time, time.Time, error) {
	end := now
	if raw, _ := cmd.Flags().GetString("end"); raw != "" {
		t, err := parseDay(raw, true)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationError("end", raw, err.Error())
		}
		end = t
	}

	start := end.AddDate(0, 0, -lookbackDays)
	if raw, _ := cmd.Flags().GetString("start"); raw != "" {
		t, err := parseDay(raw, false)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationError("start", raw, err.Error())
		}
		start = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("end", report.FormatDate(end), "end is before start")
	}
	return start, end, nil
}

func parseDay(raw string, endOfDay bool) (time.Time, error) {
	t, err := ingest.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay && len(strings.TrimSpace(raw)) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// outputFormat picks --format, then --json, then the fallback, and checks it
// against the allowed formats.
func outputFormat(cmd *cobra.Command, output *Output, fallback string, allowed ...string) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = fallback
		if output.IsJSON() {
			format = config.FormatJSON
		}
	}
	format = strings.ToLower(format)
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", apperrors.NewValidationError("format", format, "must be one of "+strings.Join(allowed, ", "))
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
