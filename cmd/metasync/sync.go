package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/metasync/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Plan catalog syncs against the stored sync state",
}

var syncPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the catalog items a sync would process",
	Long: `Plan reads Xtream get_series and get_vod_streams listings saved as JSON and
lists the items that need processing. A full sync is planned when none has
completed within full_sync_interval_hours, otherwise only items whose
last_modified (series) or added (movies) timestamp changed are listed.

  --resolve  look up provider ids and folder names for the planned items
  --commit   record the new watermarks and sync time`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req app.SyncRequest
		req.SeriesPath, _ = cmd.Flags().GetString("series")
		req.MoviesPath, _ = cmd.Flags().GetString("movies")
		req.Resolve, _ = cmd.Flags().GetBool("resolve")
		req.Commit, _ = cmd.Flags().GetBool("commit")
		req.Full, _ = cmd.Flags().GetBool("full")

		if req.SeriesPath == "" && req.MoviesPath == "" {
			return fmt.Errorf("at least one of --series or --movies is required")
		}

		return withApp(func(a *app.App) error {
			plan, err := a.PlanSync(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("sync plan failed: %w", err)
			}
			return printOutput(cmd, plan)
		})
	},
}

func init() {
	syncPlanCmd.Flags().String("series", "", "path to a get_series JSON listing")
	syncPlanCmd.Flags().String("movies", "", "path to a get_vod_streams JSON listing")
	syncPlanCmd.Flags().Bool("resolve", false, "look up provider ids for planned items")
	syncPlanCmd.Flags().Bool("commit", false, "record watermarks and sync time")
	syncPlanCmd.Flags().Bool("full", false, "force a full sync")

	syncCmd.AddCommand(syncPlanCmd)
	rootCmd.AddCommand(syncCmd)
}
