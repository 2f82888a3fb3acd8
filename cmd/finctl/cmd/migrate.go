package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/finboard/internal/config"
	"github.com/templui/finboard/internal/db"
)

func MigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect database migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, conn *sqlx.DB) error {
				return db.RunMigrations(conn.DB, cfg.DBDriver)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, conn *sqlx.DB) error {
				return db.MigrateDown(conn.DB, cfg.DBDriver)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, conn *sqlx.DB) error {
				return db.MigrationStatus(conn.DB, cfg.DBDriver)
			})
		},
	})

	return migrate
}

// withDB opens the configured database for the duration of fn.
func withDB(fn func(cfg *config.Config, conn *sqlx.DB) error) error {
	cfg := config.LoadDatabase()

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close(conn)
	}()

	return fn(cfg, conn)
}
