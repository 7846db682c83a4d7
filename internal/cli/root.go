package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bse-portfolio/internal/alerts"
	"bse-portfolio/internal/config"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/notify"
	"bse-portfolio/internal/portfolio"
	"bse-portfolio/internal/prices"
	"bse-portfolio/internal/quotes"
	"bse-portfolio/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.LedgerStore
	Aggregator *portfolio.Aggregator
	Adjuster   *portfolio.Adjuster
	Valuator   *portfolio.Valuator
	Notifier   notify.Channel
	Engine     *alerts.Engine
	Provider   quotes.Provider
	Updater    *prices.Updater
}

// context returns a command context carrying the logger, with a timeout for
// bounded operations (0 disables the timeout).
func (app *App) context(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := logging.WithLogger(context.Background(), app.Logger)
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// newNotifier builds the notification channel from config.
func newNotifier(cfg *config.Config) notify.Channel {
	if !cfg.Notifications.Enabled {
		return notify.NewNoop()
	}
	switch cfg.Notifications.Channel {
	case "desktop":
		// Desktop notifications can fail silently on headless boxes;
		// the terminal bell is the fallback.
		return notify.NewMulti(notify.NewDesktop(), notify.NewTerminal())
	case "terminal":
		return notify.NewTerminal()
	default:
		return notify.NewNoop()
	}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, most commands will be unavailable")
	} else {
		app.Store = dataStore
		app.Aggregator = portfolio.NewAggregator(dataStore)
		app.Adjuster = portfolio.NewAdjuster(dataStore)
		app.Valuator = portfolio.NewValuator(dataStore)
		app.Notifier = newNotifier(cfg)
		app.Engine = alerts.NewEngine(dataStore, app.Notifier)
		logger.Debug().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	}

	provider, err := quotes.NewProvider(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Quote provider unavailable, price updates disabled")
	} else if app.Store != nil {
		app.Provider = provider
		app.Updater = prices.NewUpdater(app.Store, provider, app.Engine)
		logger.Debug().Str("source", provider.Name()).Msg("Quote provider initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "bsepf",
		Short: "BSE portfolio tracker - holdings, P&L and price alerts",
		Long: `bsepf tracks a BSE equity portfolio from an append-only trade ledger.

It aggregates trades into holdings with blended average cost, fetches
quotes from the BSE website (or Kite Connect), values the portfolio,
applies corporate actions, and fires price alerts.

Use 'bsepf help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/bsepf)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addTradeCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addPriceCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)
	addActionCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)
	addResetCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
				return
			}
			output.Printf("bsepf v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
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
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
				return
			}
			output.Println(config.DefaultConfigDir())
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Database")
	output.Printf("  Path:            %s\n", cfg.Database.Path)
	output.Println()

	output.Bold("Quotes")
	output.Printf("  Source:          %s\n", cfg.Quotes.Source)
	output.Printf("  Timeout:         %ds\n", cfg.Quotes.TimeoutSeconds)
	output.Printf("  Max Retries:     %d\n", cfg.Quotes.MaxRetries)
	output.Printf("  Instruments:     %s\n", cfg.Quotes.InstrumentsFile)
	output.Println()

	output.Bold("Schedule")
	output.Printf("  Interval:        %d min\n", cfg.Schedule.IntervalMinutes)
	output.Printf("  Daily At:        %s\n", cfg.Schedule.DailyAt)
	output.Printf("  Market Hours:    %v\n", cfg.Schedule.MarketHoursOnly)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Channel:         %s\n", cfg.Notifications.Channel)
	output.Println()

	output.Bold("Reports")
	output.Printf("  Output Dir:      %s\n", cfg.Reports.OutputDir)
}
