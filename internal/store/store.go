package store

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Repository
// methods that must be groupable into a larger atomic unit take a Querier, so
// the same method runs against the pool directly or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// Store is the unit-of-work boundary: the only way writes to the ledger,
// orders and payments are grouped into one atomic unit.
type Store struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func New(pool *pgxpool.Pool, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{pool: pool, logger: logger}
}

// Pool exposes the underlying pool for plain reads outside any unit of work.
func (s *Store) Pool() Querier {
	return s.pool
}

// WithinTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic. Serialization conflicts are retried with backoff up to
// maxAttempts; exhaustion surfaces as domain.ErrTxConflict so callers can tell
// a transient collision from a business error.
func (s *Store) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		s.logger.Printf("store: tx conflict attempt=%d err=%v", attempt, err)
		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(domain.ErrTxConflict, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// retryable reports whether err is a Postgres serialization failure or
// deadlock, the only conflicts worth another attempt.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
