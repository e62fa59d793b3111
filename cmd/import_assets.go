package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"siap/internal/core/container"
	"siap/internal/database"

	"github.com/spf13/cobra"
)

func newImportAssetsCmd(a *app) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import-assets",
		Short: "Register assets from a CSV sheet.",
		Long:  `Every row is created through the movement ledger. Rows that fail are reported and skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			performer, _ := cmd.Flags().GetInt("performer")
			if path == "" {
				return errors.New("--file is required")
			}
			if performer <= 0 {
				return errors.New("--performer must be the id of an existing user")
			}
			if err := a.cfg.ValidateDatabase(); err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			db, err := database.NewPostgresConnection(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			c := container.NewAppContainer(db, a.cfg, a.logger)
			if _, err := c.Users.GetUser(cmd.Context(), performer); err != nil {
				return fmt.Errorf("performer: %w", err)
			}

			report, err := c.Importer.Import(cmd.Context(), file, performer)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}
	importCmd.Flags().String("file", "", "CSV file with a header row")
	importCmd.Flags().Int("performer", 0, "User id recorded as the performer of the CREATE movements")
	return importCmd
}
