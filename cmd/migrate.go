package cmd

import (
	"fmt"

	"siap/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run migrations manually.",
		Long:  `Applies every pending migration. serve does the same on start-up unless RUN_MIGRATIONS=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateDatabase(); err != nil {
				return err
			}
			migrationDir, _ := cmd.Flags().GetString("dir")
			if migrationDir == "" {
				migrationDir = a.cfg.MigrationsDir
			}

			if err := database.RunMigrations(a.cfg.DatabaseURL, migrationDir, a.logger); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return nil
		},
	}
	migrateCmd.Flags().String("dir", "", "Directory containing the migration files (defaults to MIGRATIONS_DIR)")
	return migrateCmd
}
