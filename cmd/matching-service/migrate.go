// cmd/matching-service/migrate.go
package main

import (
	"advisor-matching/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the match_results, advisor_assignments and audit_log tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		pg, err := connectPostgres(cmd.Context(), cfg.Database.Postgres, log)
		if err != nil {
			return err
		}
		defer pg.Close()

		return storage.RunMigrations(cmd.Context(), pg.DB, log)
	},
}
