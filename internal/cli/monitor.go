package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"StockAlert/internal/collector"
	"StockAlert/internal/config"
	"StockAlert/internal/model"
	"StockAlert/internal/notifier"
	"StockAlert/internal/recorder"
	"StockAlert/internal/scheduler"
)

type monitorOptions struct {
	provider   string
	interval   string
	schedule   string
	iterations int
	verbose    bool
}

func newMonitorCmd(app *App) *cobra.Command {
	opts := &monitorOptions{}
	cmd := &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"run"},
		Short:   "Sample quotes on an interval and fire alerts",
		Example: `  stockalert monitor --provider yahoo --interval 30s --verbose
  stockalert monitor --iterations 1
  stockalert monitor --schedule "0 */5 9-16 * * 1-5"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runMonitor(ctx, cmd, app, opts)
		},
	}
	cmd.Flags().StringVar(&opts.provider, "provider", "", "quote provider: "+fmt.Sprint(collector.Names()))
	cmd.Flags().StringVar(&opts.interval, "interval", "", "time between ticks, e.g. 5s, 1m or 30 (seconds)")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "cron spec (optional seconds field) used instead of --interval")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "stop after N ticks (0 = run until interrupted)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every quote")
	return cmd
}

func runMonitor(ctx context.Context, cmd *cobra.Command, app *App, opts *monitorOptions) error {
	cfg := app.Config
	log := app.Logger
	out := cmd.OutOrStdout()

	if opts.iterations < 0 {
		return fmt.Errorf("--iterations must be >= 0")
	}

	defs, err := app.Definitions.Load()
	if err != nil {
		return err
	}

	providerName := cfg.Provider
	if opts.provider != "" {
		providerName = opts.provider
	}
	provider, err := collector.New(providerName, collector.Options{
		Proxy:           cfg.Proxy,
		Timeout:         cfg.FetchTimeout(),
		Seed:            cfg.Fetch.Seed,
		AlphaVantageKey: cfg.Credentials.AlphaVantageKey,
		AlphaVantageRPM: cfg.RateLimits.AlphaVantagePerMinute,
		FinnhubKey:      cfg.Credentials.FinnhubKey,
		FinnhubRPM:      cfg.RateLimits.FinnhubPerMinute,
	})
	if err != nil {
		return err
	}

	schedule, desc, err := monitorSchedule(cfg.Interval, cfg.Schedule, opts)
	if err != nil {
		return err
	}

	if migrated, err := app.Cache.MigrateLegacy(); err != nil {
		log.Warn().Err(err).Msg("legacy cache migration failed")
	} else if migrated {
		log.Info().Str("path", app.Cache.Path()).Msg("cache migrated to current layout")
	}

	col := collector.NewCollector(provider, log)
	col.Timeout = cfg.FetchTimeout()
	col.Concurrency = cfg.Fetch.Concurrency

	runner := scheduler.NewRunner(col, app.Cache, log)
	runner.Alerts = defs.Alerts
	runner.Watchlist = defs.Watchlist
	runner.Iterations = opts.iterations
	runner.Schedule = schedule

	symbols := runner.Symbols()
	if len(symbols) == 0 {
		fmt.Fprintln(out, "Nothing to run. Add symbols to the watchlist or create alerts.")
		return nil
	}

	rec := openRecorder(cfg.Database.SQLitePath, log)
	defer rec.Close()
	var notify notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		notify = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	}

	iterations := "∞"
	if opts.iterations > 0 {
		iterations = fmt.Sprint(opts.iterations)
	}
	fmt.Fprintf(out, "Running %s with %d symbol(s), %s, iterations=%s\n", provider.Name(), len(symbols), desc, iterations)

	runner.OnTick = func(quotes map[string]model.Quote) error {
		if opts.verbose && len(quotes) > 0 {
			fmt.Fprintln(out, notifier.FormatQuotes(quotes))
		}
		if err := rec.RecordQuotes(&recorder.QuoteSnapshot{
			TickID: runner.TickID(),
			At:     time.Now(),
			Quotes: quotes,
		}); err != nil {
			log.Error().Err(err).Msg("record quotes")
		}
		return nil
	}
	runner.OnAlert = func(key string, alert model.Alert, q model.Quote, reason string) error {
		now := time.Now()
		fmt.Fprintf(out, "[ALERT] %s (%s) -> %s. Price=%s, pct_day=%s%%, volume=%d\n",
			key, alert.Symbol, reason, model.FormatNumber(q.Price), model.FormatNumber(q.PctDay), q.Volume)
		log.Info().Str("alert", key).Str("symbol", alert.Symbol).Str("reason", reason).Float64("price", q.Price).Msg("alert triggered")

		if err := rec.RecordTrigger(&recorder.TriggerEvent{
			TickID: runner.TickID(),
			At:     now,
			Key:    key,
			Alert:  alert,
			Quote:  q,
			Reason: reason,
		}); err != nil {
			log.Error().Err(err).Str("alert", key).Msg("record trigger")
		}
		if err := deliver(ctx, notify, notifier.FormatAlert(key, alert, q, reason, now)); err != nil {
			log.Error().Err(err).Str("alert", key).Msg("send notification")
		}
		return nil
	}

	if err := runner.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Run finished.")
	return nil
}

// monitorSchedule picks the tick schedule. Flags beat config, and a cron
// spec beats an interval from the same source.
func monitorSchedule(interval, spec string, opts *monitorOptions) (cron.Schedule, string, error) {
	switch {
	case opts.schedule != "":
		spec = opts.schedule
	case opts.interval != "":
		spec = ""
		interval = opts.interval
	}
	if spec != "" {
		s, err := scheduler.ParseSchedule(spec)
		if err != nil {
			return nil, "", err
		}
		return s, fmt.Sprintf("schedule=%q", spec), nil
	}
	d, err := config.ParseInterval(interval)
	if err != nil {
		return nil, "", err
	}
	return scheduler.Every(d), "interval=" + d.String(), nil
}

// notifyTimeout bounds one alert delivery, retries included.
const notifyTimeout = 30 * time.Second

// deliver sends text on a context detached from ctx's cancellation and
// bounded by notifyTimeout.
func deliver(ctx context.Context, n notifier.Notifier, text string) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	return n.Notify(sendCtx, text)
}

func openRecorder(path string, log zerolog.Logger) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
