package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the symbols sampled on every tick",
	}
	cmd.AddCommand(newWatchlistAddCmd(app))
	cmd.AddCommand(newWatchlistListCmd(app))
	cmd.AddCommand(newWatchlistRemoveCmd(app))
	return cmd
}

func newWatchlistAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add SYMBOL...",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			added := defs.AddSymbols(args...)
			if err := app.Definitions.Save(defs); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(added) == 0 {
				fmt.Fprintln(out, "No new symbols added.")
				return nil
			}
			fmt.Fprintf(out, "Added to watchlist: %s\n", strings.Join(added, ", "))
			return nil
		},
	}
}

func newWatchlistListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watchlist symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(defs.Watchlist) == 0 {
				fmt.Fprintln(out, "Watchlist is empty.")
				return nil
			}
			fmt.Fprintln(out, "Watchlist:")
			for _, s := range defs.Watchlist {
				fmt.Fprintf(out, "- %s\n", s)
			}
			return nil
		},
	}
}

func newWatchlistRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove SYMBOL...",
		Aliases: []string{"rm"},
		Short:   "Remove symbols from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := app.Definitions.Load()
			if err != nil {
				return err
			}
			removed := defs.RemoveSymbols(args...)
			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				fmt.Fprintln(out, "Nothing removed.")
				return nil
			}
			if err := app.Definitions.Save(defs); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed from watchlist: %s\n", strings.Join(removed, ", "))
			return nil
		},
	}
}
