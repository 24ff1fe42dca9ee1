package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chat-realtime/internal/config"
	"chat-realtime/internal/server"
	"chat-realtime/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	envFile string

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return server.Migrate(cfg, log)
		},
	}

	rootCmd = &cobra.Command{
		Use:   "chat-realtime",
		Short: "Realtime presence and game session server",
		Long:  `Serves websocket presence, typing indicators and two-player game sessions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			app, err := server.NewApp(cfg, log)
			if err != nil {
				log.Error("Failed to initialize application", "error", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file")
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(migrateCmd)
}

func setup() (*config.Config, *logger.Logger, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.LoadConfig(files...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, l, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
