package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trade-review/internal/ingest"
	"trade-review/internal/logging"
)

// addDataCommands adds data inspection commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newValidateCmd(app))
}

// validationResult is the JSON form of the validate command.
type validationResult struct {
	Trades   int      `json:"trades"`
	Candles  int      `json:"candles,omitempty"`
	Warnings []string `json:"warnings"`
}

func newValidateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a trade log for data quality issues",
		Long: `Load a trade log and report data quality warnings:
- Missing stop loss or take profit
- Exit price without P&L or exit timestamp
- Stop loss or take profit on the wrong side of the entry

Warnings do not fail the command. Malformed files do.`,
		Example: `  trade-review validate --trades trades.csv
  trade-review validate --trades trades.csv --market data.csv --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			path, _ := cmd.Flags().GetString("trades")
			if path == "" {
				path = app.Config.Data.TradesPath
			}
			if path == "" {
				return fmt.Errorf("trade log required: use --trades or set data.trades_path")
			}

			trades, err := ingest.LoadTrades(path)
			if err != nil {
				return err
			}
			logging.LogIngest(app.Logger, "trades", path, len(trades))

			result := validationResult{
				Trades:   len(trades),
				Warnings: ingest.ValidateTrades(trades),
			}
			if result.Warnings == nil {
				result.Warnings = []string{}
			}

			if market, _ := cmd.Flags().GetString("market"); market != "" {
				candles, err := ingest.LoadCandles(market)
				if err != nil {
					return err
				}
				logging.LogIngest(app.Logger, "candles", market, len(candles))
				result.Candles = len(candles)
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("Validated %d trades from %s", result.Trades, path)
			if result.Candles > 0 {
				output.Dim("Market data: %d candles", result.Candles)
			}
			output.Println()
			if len(result.Warnings) == 0 {
				output.Success("No issues found")
				return nil
			}
			for _, warn := range result.Warnings {
				output.Warning("  %s", warn)
			}
			output.Println()
			output.Printf("%d warnings\n", len(result.Warnings))
			return nil
		},
	}

	cmd.Flags().String("trades", "", "trade log CSV (default: data.trades_path)")
	cmd.Flags().String("market", "", "also check that this market data CSV loads")

	return cmd
}
