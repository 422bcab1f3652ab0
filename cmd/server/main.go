// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qolzam/metamorph/internal/database/postgres"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/platform/config"
	"github.com/qolzam/metamorph/internal/server"
	"github.com/spf13/cobra"
)

const programName = "metamorph"

var envFile string

func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.LoadFromEnv(files...)
	if err != nil {
		return nil, err
	}
	log.SetDebug(cfg.Server.Debug)
	return cfg, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, resources, err := server.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer resources.Close()

			app := server.New(cfg, deps)

			errs := make(chan error, 1)
			go func() {
				addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
				log.Info("starting %s on %s", programName, addr)
				errs <- app.Listen(addr)
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Warn("server forced to shutdown: %v", err)
			}
			log.Info("server stopped")
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := postgres.NewClient(cmd.Context(), cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema is up to date")
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Link submission and voting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default .env)")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
