package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/database"
)

// NewMigrateCommand creates the migrate command with subcommands. Only the
// postgres and sqlite backends have a schema; others report nothing to do.
func NewMigrateCommand(load configLoader) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the key/value table used by the SQL storage backends (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, load, func(mg *database.Migrator) error {
				if err := mg.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migration up completed successfully")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, load, func(mg *database.Migrator) error {
				if err := mg.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migration down completed successfully")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, load, func(mg *database.Migrator) error {
				version, dirty, err := mg.Version()
				if err != nil {
					return fmt.Errorf("failed to get migration version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
				fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

func withMigrator(cmd *cobra.Command, load configLoader, fn func(*database.Migrator) error) error {
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch cfg.Storage.Backend {
	case config.BackendPostgres, config.BackendSQLite:
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Storage backend %q has no schema to migrate\n", cfg.Storage.Backend)
		return nil
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	mg, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	return fn(mg)
}
