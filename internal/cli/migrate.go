package cli

import (
	"context"
	"fmt"
	"log/slog"

	"classquiz-service/internal/config"
	"classquiz-service/internal/infra/postgres"
	pgmigrations "classquiz-service/internal/infra/postgres/migrations"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			db := postgres.Open(cfg.Postgres.URL)
			defer db.Close()
			return runMigrations(cmd.Context(), db, newLogger(cfg.Log.Level))
		},
	}
}

func runMigrations(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if group.IsZero() {
		logger.Info("schema is up to date")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}
