package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"siap/internal/core/container"
	"siap/internal/core/routes"
	"siap/internal/database"
	"siap/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.cfg.RunMigrations {
				if err := database.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsDir, a.logger); err != nil {
					return fmt.Errorf("migrate database: %w", err)
				}
			}

			db, err := database.NewPostgresConnection(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			a.logger.Info("Connected to the database successfully")

			c := container.NewAppContainer(db, a.cfg, a.logger)
			defer c.Notifier.Wait()

			if a.cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(
				middleware.RecoveryMiddleware(a.logger),
				middleware.RequestLogger(a.logger),
				middleware.TimeoutMiddleware(a.cfg.RequestTimeout),
			)
			routes.RegisterUtilityRoutes(router, c)
			routes.RegisterPublicRoutes(router, c)
			routes.RegisterProtectedRoutes(router, c)

			server := &http.Server{
				Addr:              a.cfg.AppHost,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				a.logger.Info("Starting server", zap.String("addr", a.cfg.AppHost))
				serveErr <- server.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
