package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/metasync/internal/app"
	"github.com/varoOP/metasync/internal/domain"
	"github.com/varoOP/metasync/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-storage",
	Short: "Copy the cache and sync state between storage backends",
	Long: `Copy the metadata cache and the sync state from one storage backend to the
other, e.g. from the JSON files to metasync.db. Set storage.backend to the
destination afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := app.MigrateStorage(cmd.Context(), logger.New(cfg.LogLevel), cfg, domain.StorageBackend(from), domain.StorageBackend(to))
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		return printOutput(cmd, result)
	},
}

func init() {
	migrateCmd.Flags().String("from", string(domain.StorageJSON), "source backend: json, sqlite or bolt")
	migrateCmd.Flags().String("to", string(domain.StorageSQLite), "destination backend: json, sqlite or bolt")
	rootCmd.AddCommand(migrateCmd)
}
