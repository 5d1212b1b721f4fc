package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"StockAlert/internal/config"
	"StockAlert/internal/model"
	"StockAlert/internal/trigger"
)

func newAlertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Create or remove alerts",
	}
	cmd.AddCommand(newAlertCreateCmd(app))
	cmd.AddCommand(newAlertRemoveCmd(app))
	return cmd
}

func newAlertCreateCmd(app *App) *cobra.Command {
	var (
		symbol   string
		when     string
		cooldown int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an alert, or update the cooldown of an identical one",
		Example: `  stockalert alert create --symbol AAPL --when "price_value >= 200"
  stockalert alert create --symbol TSLA --when "pct_day <= -5" --cooldown 3600
  stockalert alert create --symbol NVDA --when "price_percent_offset_since_last_alert >= 3"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(symbol) == "" {
				return fmt.Errorf("--symbol is required")
			}
			kind, op, value, err := trigger.ParseCondition(when)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("cooldown") {
				cooldown = app.Config.DefaultCooldown
			}
			if cooldown < 0 {
				return fmt.Errorf("--cooldown must be >= 0")
			}

			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			alert := model.NewAlert(symbol, kind, op, value, cooldown)
			replaced := defs.UpsertAlert(alert)
			if err := app.Definitions.Save(defs); err != nil {
				return err
			}

			verb := "Created"
			if replaced {
				verb = "Updated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s alert '%s' (cooldown %ds)\n", verb, alert.Key(), alert.CooldownSeconds)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "ticker symbol, e.g. AAPL")
	cmd.Flags().StringVar(&when, "when", "", `condition "<kind> <op> <number>"`)
	cmd.Flags().IntVar(&cooldown, "cooldown", config.DefaultCooldownSeconds, "seconds before the alert may fire again")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("when")
	return cmd
}

func newAlertRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove KEY",
		Aliases: []string{"rm"},
		Short:   `Remove an alert by key, e.g. "AAPL price_value >= 200"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.Join(args, " ")
			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			if !defs.RemoveAlert(key) {
				return fmt.Errorf("no alert with key %q", key)
			}
			if err := app.Definitions.Save(defs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed alert '%s'\n", key)
			return nil
		},
	}
}

func newAlertsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List alerts with their last trigger time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(defs.Alerts) == 0 {
				fmt.Fprintln(out, "No alerts defined.")
				return nil
			}

			times, err := app.Cache.Read().TriggerTimes()
			if err != nil {
				app.Logger.Warn().Err(err).Msg("cannot read trigger times")
			}
			fmt.Fprintln(out, "Alerts:")
			for _, a := range defs.Alerts {
				last := "never"
				if ts, ok := times[a.Key()]; ok {
					last = ts.String()
				}
				fmt.Fprintf(out, "- %s | cooldown %ds | last %s\n", a.Key(), a.CooldownSeconds, last)
			}
			return nil
		},
	}
}
