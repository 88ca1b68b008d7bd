// Package cmd implements the ticketctl administration commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/observability"
	"github.com/spec-kit/ticketing-api/internal/persistence"
	"github.com/spec-kit/ticketing-api/internal/repository"
)

var (
	// Version is set at build time.
	Version = "dev"

	logLevel string

	// Set by PersistentPreRunE, released by Execute.
	admin *userAdmin
	pg    *persistence.Postgres
)

var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Operator CLI for the ticketing API",
	Long: `ticketctl manages ticketing accounts directly in the database.

It reads the same environment (.env, DATABASE_URL or DB_*) as the API server.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return connect(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(usersCmd)
}

// Execute runs the root command and closes the database pool, whether or not the
// command succeeded.
func Execute() error {
	defer func() {
		if pg != nil {
			pg.Close()
			pg = nil
		}
	}()
	return rootCmd.ExecuteContext(context.Background())
}

func connect(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logger.Level = logLevel

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("connected", zap.String("app", cfg.App.Name))

	admin = newUserAdmin(repository.NewUserRepository(pg.PoolHandle()), cfg.Auth.BcryptCost, cmd.OutOrStdout())
	return nil
}
