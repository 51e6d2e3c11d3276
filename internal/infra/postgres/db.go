package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classquiz-service/internal/app"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Open returns a bun handle over pgdriver. The caller closes it.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements app.Store on Postgres through bun.
type Store struct {
	db   *bun.DB
	idb  bun.IDB
	inTx bool
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, idb: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: s.db, idb: tx, inTx: true})
	})
}

// atomic runs fn inside the current transaction, or a new one.
func (s *Store) atomic(ctx context.Context, fn func(ctx context.Context, idb bun.IDB) error) error {
	if s.inTx {
		return fn(ctx, s.idb)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgCode returns the SQLSTATE and constraint name of a Postgres error.
func pgCode(err error) (code, constraint string) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C'), pgErr.Field('n')
	}
	return "", ""
}

func isUnique(err error) bool {
	code, _ := pgCode(err)
	return code == codeUniqueViolation
}

func isForeignKey(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}

// notFound maps a missing row to sentinel and wraps anything else with op.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func nowIfZero(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
