// Package cli provides the stockalert command tree.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"StockAlert/internal/cache"
	"StockAlert/internal/config"
	"StockAlert/internal/store"
)

// App holds the dependencies shared by every command.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Definitions *store.Store
	Cache       *cache.Store
}

// NewApp wires the stores described by cfg.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	app := &App{Config: cfg}
	app.SetLogger(logger)
	return app
}

// SetLogger replaces the logger and rebuilds the stores that log through it.
func (a *App) SetLogger(logger zerolog.Logger) {
	a.Logger = logger
	a.Definitions = store.NewStore(filepath.Join(a.Config.AppDir, store.DefaultFileName), logger)
	a.Cache = cache.NewStore(a.Config.Cache, logger)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stockalert",
		Short: "Watch stock quotes and fire alerts on price, volume and daily moves",
		Long: `stockalert samples quotes for a watchlist on an interval and evaluates
alert conditions such as "price_value >= 200" against them. Triggers respect
a per-alert cooldown and are remembered across runs in a rotating JSON cache.

Data lives in $STOCKALERT_HOME (default ~/.stockalert).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.SetLogger(app.Logger.Level(zerolog.DebugLevel))
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newAlertCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))
	rootCmd.AddCommand(newMonitorCmd(app))
	return rootCmd
}
