package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_init_schema.sql
var initSchemaSQL string

// Migrations holds every schema change, applied in registration order.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, initSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS
				answers, session_attempts, quiz_attempts, options, questions,
				quiz_sessions, quiz_classes, quizzes, class_students, classes, users`)
			return err
		},
	)
}
