// Package cli provides the command-line interface for the trade review tool.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-review/internal/config"
	"trade-review/internal/logging"
	"trade-review/internal/review"
	"trade-review/internal/tracing"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// Config annotation values. Commands without the annotation need a valid
// configuration before they run.
const (
	configAnnotation = "config"
	configUnchecked  = "unchecked" // loaded but not validated
	configManual     = "manual"    // not loaded; the command handles it
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	shutdownTracing tracing.ShutdownFunc
}

// NewReviewer builds a reviewer from the current configuration. Callers must Close it.
func (a *App) NewReviewer() *review.Reviewer {
	return review.New(review.OptionsFromConfig(a.Config), a.Logger)
}

// readConfig returns the injected configuration, or reads it from --config or
// the default directory when none was injected or --config overrides it.
func (a *App) readConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.Config != nil && !cmd.Flags().Changed("config") {
		return a.Config, nil
	}
	dir, _ := cmd.Flags().GetString("config")
	return config.Read(dir)
}

func (a *App) prepareConfig(cmd *cobra.Command) error {
	mode := cmd.Annotations[configAnnotation]
	if mode == configManual || cmd.Name() == "help" {
		return nil
	}

	cfg, err := a.readConfig(cmd)
	if err != nil {
		return err
	}
	if mode != configUnchecked {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
	}
	if cfg != a.Config {
		a.Config = cfg
		a.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
	}
	return nil
}

// flushTracing exports buffered spans. It runs after every command, failed
// ones included.
func (a *App) flushTracing() {
	if a.shutdownTracing == nil {
		return
	}
	shutdown := a.shutdownTracing
	a.shutdownTracing = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to flush traces")
	}
}

// NewRootCmd creates the root command for the CLI. A nil cfg is read from
// --config or the default directory when a command runs.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "trade-review",
		Short: "Trade Review - post-trade analysis against market context",
		Long: `Trade Review scores a trader's historical trades against the market
conditions of the same period.

It reads OHLCV candles and a trade log from CSV, derives the market context
(trend, volatility, support and resistance), grades every trade and
aggregates the results into performance metrics.

Use 'trade-review help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.prepareConfig(cmd); err != nil {
				return err
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			if trace, _ := cmd.Flags().GetBool("trace"); trace {
				shutdown, err := tracing.Init(cmd.ErrOrStderr(), Version)
				if err != nil {
					return err
				}
				app.shutdownTracing = shutdown
				cobra.OnFinalize(app.flushTracing)
				app.Logger.Debug().Msg("Tracing enabled")
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-review)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("trace", false, "write OpenTelemetry spans to stderr")

	addCoreCommands(rootCmd, app)
	addReviewCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{configAnnotation: configManual},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Trade Review v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Show current configuration",
		Annotations: map[string]string{configAnnotation: configUnchecked},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Annotations: map[string]string{configAnnotation: configUnchecked},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := app.Config.Path
			if path == "" {
				path = config.DefaultConfigDir() + "/config.toml"
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration",
		Annotations: map[string]string{configAnnotation: configManual},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg, err := app.readConfig(cmd)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis")
	output.Printf("  Levels:          %d\n", cfg.Analysis.NumLevels)
	output.Printf("  Fit Mode:        %s\n", cfg.Analysis.FitMode)
	output.Printf("  Lookback Days:   %d\n", cfg.Analysis.LookbackDays)
	output.Printf("  Max Trades:      %d\n", cfg.Analysis.MaxTrades)
	output.Printf("  Workers:         %d\n", cfg.Analysis.Workers)
	output.Println()

	output.Bold("Data")
	output.Printf("  Symbol:          %s\n", cfg.Data.Symbol)
	output.Printf("  Market Data:     %s\n", cfg.Data.MarketDataPath)
	output.Printf("  Trades:          %s\n", cfg.Data.TradesPath)
	output.Println()

	output.Bold("Report")
	output.Printf("  Format:          %s\n", cfg.Report.Format)
	output.Printf("  Color:           %v\n", cfg.Report.Color)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
	if cfg.Logging.File {
		output.Printf("  File Path:       %s\n", cfg.LogConfig().FilePath)
	}
}
