package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/metasync/internal/app"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the sync state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show last sync times and tracked item counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			report, err := a.State(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, report)
		})
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all sync progress so the next sync is a full one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			if err := a.ResetState(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset sync state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sync state reset")
			return nil
		})
	},
}

var stateNeedsFullSyncCmd = &cobra.Command{
	Use:   "needs-full-sync",
	Short: "Print whether the full sync interval has elapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			needed, err := a.NeedsFullSync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), needed)
			return nil
		})
	},
}

func init() {
	stateCmd.AddCommand(stateShowCmd, stateResetCmd, stateNeedsFullSyncCmd)
	rootCmd.AddCommand(stateCmd)
}
