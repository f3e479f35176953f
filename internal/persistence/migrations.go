package persistence

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationState describes one migration for the status command.
type MigrationState struct {
	Version int64
	File    string
	Applied bool
}

func newMigrationProvider(pool *pgxpool.Pool) (*goose.Provider, func() error, error) {
	if pool == nil {
		return nil, nil, errors.New("no postgres pool available")
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("open migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init migrations: %w", err)
	}
	return provider, db.Close, nil
}

// RunMigrations applies pending embedded migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	provider, closeDB, err := newMigrationProvider(pool)
	if err != nil {
		return err
	}
	defer closeDB() //nolint:errcheck

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("applied migration",
			zap.String("file", res.Source.Path),
			zap.Duration("duration", res.Duration))
	}
	logger.Info("migrations up to date", zap.Int("applied", len(results)))
	return nil
}

// MigrationStatus lists every embedded migration and whether it is applied.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) ([]MigrationState, error) {
	provider, closeDB, err := newMigrationProvider(pool)
	if err != nil {
		return nil, err
	}
	defer closeDB() //nolint:errcheck

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationState{
			Version: st.Source.Version,
			File:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return out, nil
}
