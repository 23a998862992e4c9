package main

import (
	"fmt"

	"lgpd-site-api/internal/config"
	"lgpd-site-api/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Apply pending migrations to DATABASE_URL, or roll back with --down N.`,
	RunE:  runMigrate,
}

var migrateDownSteps int

func init() {
	migrateCmd.Flags().IntVar(&migrateDownSteps, "down", 0, "roll back N migrations instead of applying")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	out := cmd.OutOrStdout()

	if migrateDownSteps > 0 {
		fmt.Fprintf(out, "Rolling back %d migration(s)...\n", migrateDownSteps)
		if err := database.RollbackMigrations(cfg.DatabaseURL, migrateDownSteps); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		fmt.Fprintln(out, "✓ Rollback completed successfully")
		return nil
	}

	fmt.Fprintln(out, "Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	fmt.Fprintln(out, "✓ Migrations completed successfully")
	return nil
}
