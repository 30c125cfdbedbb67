package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lalith-99/teamsync/internal/config"
	"github.com/lalith-99/teamsync/internal/db"
	"github.com/lalith-99/teamsync/internal/observ"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// flags
	databaseURL string
	target      int64

	logger   *zap.Logger
	migrator *db.Migrator
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the teamsync database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if databaseURL == "" {
			databaseURL = cfg.DatabaseURL
		}
		logger, err = observ.NewLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		migrator, err = db.NewMigrator(databaseURL, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrator.Up(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrator.Status(cmd.Context())
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration, or down to --to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrator.Down(cmd.Context(), target)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default: DATABASE_URL)")
	downCmd.Flags().Int64Var(&target, "to", 0, "roll back down to this version")

	rootCmd.AddCommand(upCmd, statusCmd, downCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
