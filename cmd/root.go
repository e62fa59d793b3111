package cmd

import (
	"context"
	"fmt"
	"os"

	"siap/internal/core/config"
	"siap/internal/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs; it is filled in by the root PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "siap",
		Short:         "Asset lifecycle tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.NewLogger(cfg.AppEnv)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newImportAssetsCmd(a),
		newSyncHRISCmd(a),
	)
	return rootCmd
}

func Execute(ctx context.Context) {
	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
