package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func openPostgres(ctx context.Context) (*persistence.Postgres, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pg, logger, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	pg, logger, err := openPostgres(cmd.Context())
	if err != nil {
		return err
	}
	defer pg.Close()
	defer logger.Sync() //nolint:errcheck

	if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cmd.Println("migrate up: ok")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	pg, logger, err := openPostgres(cmd.Context())
	if err != nil {
		return err
	}
	defer pg.Close()
	defer logger.Sync() //nolint:errcheck

	states, err := persistence.MigrationStatus(cmd.Context(), pg.PoolHandle())
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	for _, s := range states {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		cmd.Printf("%05d  %-8s %s\n", s.Version, state, s.File)
	}
	return nil
}
