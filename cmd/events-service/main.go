package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"events-service/internal/config"
	"events-service/internal/repository/postgres"
	"events-service/internal/server"
	"events-service/internal/service"
)

func main() {
	// Load environment variables from .env
	if err := godotenv.Load(); err != nil {
		log.Println("Events: No .env file found, relying on system env vars")
	}

	cfg := config.Load()
	logger, err := server.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:          "events-service",
		Short:        "Temple sports event registration and results service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(cfg, logger), migrateCmd(cfg, logger), seedCmd(cfg, logger))

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serveCmd(cfg config.AppConfig, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := server.NewServer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 2)
			go func() {
				if err := srv.StartHTTP(); err != nil {
					errCh <- err
				}
			}()
			go func() {
				if err := srv.StartGRPC(cfg.GRPCAddr); err != nil {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-quit:
				logger.Info("shutting down events servers")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
				return nil
			case err := <-errCh:
				logger.Error("server error", zap.Error(err))
				srv.Shutdown(context.Background())
				return err
			}
		},
	}
}

func migrateCmd(cfg config.AppConfig, logger *zap.Logger) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return postgres.Migrate(cfg.DatabaseURL(), down, logger)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back one migration instead")
	return cmd
}

func seedCmd(cfg config.AppConfig, logger *zap.Logger) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load temples, the event catalog and result points from YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := service.LoadSeedFile(file)
			if err != nil {
				return err
			}
			db, err := server.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return service.NewSeeder(db, logger).Apply(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&file, "file", cfg.SeedFile, "seed file to apply")
	return cmd
}
