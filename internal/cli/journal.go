package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apperrors "trade-review/internal/errors"
	"trade-review/internal/ingest"
	"trade-review/internal/journal"
	"trade-review/internal/logging"
	"trade-review/internal/models"
	"trade-review/internal/report"
)

// addJournalCommands adds journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Manual trade log management",
		Long: `Add, amend, delete and list trades in a CSV trade log.

Each command loads the log given by --trades, applies the change and writes
the resulting log to --out, or to stdout when --out is not set. With --json
the affected trade is printed instead of the log.`,
	}

	cmd.PersistentFlags().String("trades", "", "trade log CSV to start from (default: data.trades_path)")
	cmd.PersistentFlags().String("out", "", "write the resulting trade log to this file")

	cmd.AddCommand(newJournalAddCmd(app))
	cmd.AddCommand(newJournalUpdateCmd(app))
	cmd.AddCommand(newJournalDeleteCmd(app))
	cmd.AddCommand(newJournalListCmd(app))
	cmd.AddCommand(newJournalClearCmd(app))

	rootCmd.AddCommand(cmd)
}

func newJournalAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a trade",
		Long:  "Add a manually entered trade. Ids are generated as MANUAL-0001, MANUAL-0002 and so on.",
		Example: `  trade-review journal add --trades trades.csv --out trades.csv --symbol AAPL --side buy --entry 185.2 --qty 10 --stop 180 --target 195
  trade-review journal add --symbol AAPL --side sell --entry 190 --qty 5 --exit 186 --time "2024-01-03 10:30"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			book, err := loadBook(cmd, app, true)
			if err != nil {
				return err
			}

			entry, err := journalEntry(cmd, app)
			if err != nil {
				return err
			}

			trade, err := book.Add(entry)
			if err != nil {
				return err
			}
			app.Logger.Info().Str("trade_id", trade.ID).Str("symbol", trade.Symbol).Msg("Trade added")

			return saveBook(cmd, output, book, trade, fmt.Sprintf("Added %s", trade.ID))
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol (default: data.symbol)")
	cmd.Flags().String("side", "", "buy or sell")
	cmd.Flags().Float64("entry", 0, "entry price")
	cmd.Flags().Float64("qty", 0, "quantity")
	cmd.Flags().String("time", "", "entry timestamp (default: now)")
	addAmendmentFlags(cmd)
	_ = cmd.MarkFlagRequired("side")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

func newJournalUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <trade-id>",
		Short: "Amend a trade",
		Long:  "Amend exit, stop loss, take profit or notes of a trade. P&L is recomputed when the exit price changes.",
		Example: `  trade-review journal update MANUAL-0001 --trades trades.csv --out trades.csv --exit 192.5 --exit-time "2024-01-04 15:00"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			amendment, err := journalAmendment(cmd)
			if err != nil {
				return err
			}
			if amendment == (models.TradeAmendment{}) {
				return fmt.Errorf("nothing to update: set at least one of --exit, --exit-time, --stop, --target, --notes")
			}

			book, err := loadBook(cmd, app, false)
			if err != nil {
				return err
			}

			trade, err := book.Update(args[0], amendment)
			if err != nil {
				return err
			}
			app.Logger.Info().Str("trade_id", trade.ID).Msg("Trade updated")

			return saveBook(cmd, output, book, trade, fmt.Sprintf("Updated %s", trade.ID))
		},
	}

	addAmendmentFlags(cmd)

	return cmd
}

func newJournalDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			book, err := loadBook(cmd, app, false)
			if err != nil {
				return err
			}

			trade, err := book.Get(args[0])
			if err != nil {
				return err
			}
			if err := book.Delete(trade.ID); err != nil {
				return err
			}
			app.Logger.Info().Str("trade_id", trade.ID).Msg("Trade deleted")

			return saveBook(cmd, output, book, trade, fmt.Sprintf("Deleted %s", trade.ID))
		},
	}
}

func newJournalClearCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all trades, or all trades of one symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			book, err := loadBook(cmd, app, false)
			if err != nil {
				return err
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			before := book.Len()
			book.Clear(symbol)
			removed := before - book.Len()
			app.Logger.Info().Str("symbol", symbol).Int("removed", removed).Msg("Trades cleared")

			if output.IsJSON() {
				return output.JSON(map[string]int{"removed": removed, "remaining": book.Len()})
			}
			return writeBook(cmd, output, book, fmt.Sprintf("Removed %d trades", removed))
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "only clear this symbol")

	return cmd
}

func newJournalListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		Example: `  trade-review journal list --trades trades.csv --symbol AAPL --start 2024-01-01 --end 2024-01-31
  trade-review journal list --trades trades.csv --side sell --limit 10 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			book, err := loadBook(cmd, app, false)
			if err != nil {
				return err
			}

			filter, err := journalFilter(cmd)
			if err != nil {
				return err
			}
			trades := book.List(filter)

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Info("No trades found")
				return nil
			}

			table := NewTable(output, "ID", "Time", "Symbol", "Side", "Entry", "Qty", "Exit", "P&L")
			var total float64
			for _, t := range trades {
				exit, pnl := "-", "-"
				if t.ExitPrice != nil {
					exit = report.FormatCurrency(*t.ExitPrice)
				}
				if t.PnL != nil {
					pnl = report.FormatPnL(*t.PnL)
					total += *t.PnL
				}
				table.AddRow(
					t.ID,
					t.Timestamp.Format("2006-01-02 15:04"),
					t.Symbol,
					strings.ToUpper(string(t.Side)),
					report.FormatCurrency(t.EntryPrice),
					fmt.Sprintf("%g", t.Quantity),
					exit,
					pnl,
				)
			}
			table.Render()
			output.Println()
			output.Printf("%d trades, realized P&L %s\n", len(trades), report.FormatPnL(total))
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "filter by symbol")
	cmd.Flags().String("side", "", "filter by side (buy or sell)")
	cmd.Flags().String("start", "", "only trades entered at or after this time")
	cmd.Flags().String("end", "", "only trades entered at or before this time")
	cmd.Flags().Int("limit", 0, "maximum number of trades to show")

	return cmd
}

func addAmendmentFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("exit", 0, "exit price")
	cmd.Flags().String("exit-time", "", "exit timestamp")
	cmd.Flags().Float64("stop", 0, "stop loss")
	cmd.Flags().Float64("target", 0, "take profit")
	cmd.Flags().String("notes", "", "trade rationale")
}

// loadBook seeds a journal book from the --trades log. When allowMissing is
// set, a log that does not exist yet starts an empty book.
func loadBook(cmd *cobra.Command, app *App, allowMissing bool) (*journal.Book, error) {
	book := journal.NewBook()

	path, _ := cmd.Flags().GetString("trades")
	if path == "" {
		path = app.Config.Data.TradesPath
	}
	if path == "" {
		if allowMissing {
			return book, nil
		}
		return nil, fmt.Errorf("trade log required: use --trades or set data.trades_path")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) && allowMissing {
		return book, nil
	}

	trades, err := ingest.LoadTrades(path)
	if err != nil {
		return nil, err
	}
	logging.LogIngest(app.Logger, "trades", path, len(trades))

	if err := book.Import(trades...); err != nil {
		return nil, apperrors.Wrapf(err, "failed to load %s", path)
	}
	return book, nil
}

// saveBook writes the log and reports the affected trade.
func saveBook(cmd *cobra.Command, output *Output, book *journal.Book, trade models.Trade, message string) error {
	if output.IsJSON() {
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := writeLog(out, book); err != nil {
				return err
			}
		}
		return output.JSON(trade)
	}
	return writeBook(cmd, output, book, message)
}

// writeBook writes the log to --out and prints message, or writes the log to stdout.
func writeBook(cmd *cobra.Command, output *Output, book *journal.Book, message string) error {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return writeTrades(output.Writer(), book)
	}
	if err := writeLog(out, book); err != nil {
		return err
	}
	output.Success("%s (%d trades written to %s)", message, book.Len(), out)
	return nil
}

func writeLog(path string, book *journal.Book) error {
	return writeFile(path, func(f *os.File) error {
		return writeTrades(f, book)
	})
}

func writeTrades(w io.Writer, book *journal.Book) error {
	return ingest.WriteTrades(w, book.List(journal.TradeFilter{}))
}

func journalEntry(cmd *cobra.Command, app *App) (journal.Entry, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	if symbol == "" {
		symbol = app.Config.Data.Symbol
	}
	side, _ := cmd.Flags().GetString("side")
	entryPrice, _ := cmd.Flags().GetFloat64("entry")
	qty, _ := cmd.Flags().GetFloat64("qty")

	entry := journal.Entry{
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   qty,
	}

	if raw, _ := cmd.Flags().GetString("time"); raw != "" {
		ts, err := ingest.ParseTimestamp(raw)
		if err != nil {
			return entry, apperrors.NewValidationError("time", raw, err.Error())
		}
		entry.Timestamp = &ts
	}

	a, err := journalAmendment(cmd)
	if err != nil {
		return entry, err
	}
	entry.ExitPrice = a.ExitPrice
	entry.ExitTimestamp = a.ExitTimestamp
	entry.StopLoss = a.StopLoss
	entry.TakeProfit = a.TakeProfit
	entry.Notes = a.Notes
	return entry, nil
}

// journalAmendment collects the amendment flags that were set explicitly.
func journalAmendment(cmd *cobra.Command) (models.TradeAmendment, error) {
	var a models.TradeAmendment
	flags := cmd.Flags()

	if flags.Changed("exit") {
		v, _ := flags.GetFloat64("exit")
		a.ExitPrice = models.Float(v)
	}
	if flags.Changed("stop") {
		v, _ := flags.GetFloat64("stop")
		a.StopLoss = models.Float(v)
	}
	if flags.Changed("target") {
		v, _ := flags.GetFloat64("target")
		a.TakeProfit = models.Float(v)
	}
	if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		a.Notes = models.String(v)
	}
	if flags.Changed("exit-time") {
		raw, _ := flags.GetString("exit-time")
		ts, err := ingest.ParseTimestamp(raw)
		if err != nil {
			return a, apperrors.NewValidationError("exit-time", raw, err.Error())
		}
		a.ExitTimestamp = &ts
	}
	return a, nil
}

func journalFilter(cmd *cobra.Command) (journal.TradeFilter, error) {
	var f journal.TradeFilter
	f.Symbol, _ = cmd.Flags().GetString("symbol")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	if raw, _ := cmd.Flags().GetString("side"); raw != "" {
		f.Side = models.Side(strings.ToLower(strings.TrimSpace(raw)))
		if !f.Side.Valid() {
			return f, apperrors.NewValidationError("side", raw, "must be buy or sell")
		}
	}
	if raw, _ := cmd.Flags().GetString("start"); raw != "" {
		t, err := parseDay(raw, false)
		if err != nil {
			return f, apperrors.NewValidationError("start", raw, err.Error())
		}
		f.StartDate = t
	}
	if raw, _ := cmd.Flags().GetString("end"); raw != "" {
		t, err := parseDay(raw, true)
		if err != nil {
			return f, apperrors.NewValidationError("end", raw, err.Error())
		}
		f.EndDate = t
	}
	return f, nil
}
