// Package postgres is the production store driver: pgx repositories with
// inline SQL, row-level FOR UPDATE locks and a transaction-scoped
// lock_timeout so blocked bookings fail fast instead of hanging.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
	"github.com/vasitum/interviewsched/libs/db"
)

type Store struct {
	pool *db.Pool
}

func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

// Migrate applies the schema. Idempotent; safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return scheduling.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Bound lock waits for the whole transaction; a contended row surfaces
	// as a Transient error rather than an indefinite block.
	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '5s'`); err != nil {
		return err
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return scheduling.Transient("commit transaction", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
