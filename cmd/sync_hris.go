package cmd

import (
	"encoding/json"

	"siap/internal/core/container"
	"siap/internal/database"
	"siap/internal/integrations/hris"

	"github.com/spf13/cobra"
)

func newSyncHRISCmd(a *app) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync-hris",
		Short: "Mirror the HR directory into the users table.",
		Long:  `Reads --file when given, otherwise HRIS_BASE_URL or HRIS_FILE. Directory users missing from the feed are deactivated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateDatabase(); err != nil {
				return err
			}

			db, err := database.NewPostgresConnection(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			c := container.NewAppContainer(db, a.cfg, a.logger)
			service := c.HRISSync
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				service = hris.NewSyncService(c.Users, hris.FileSource{Path: path}, a.logger)
			}

			report, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}
	syncCmd.Flags().String("file", "", "JSON or CSV export of the directory")
	return syncCmd
}
