// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for url and runs migrations.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func newArgs() *storage.Args {
	return storage.NewArgs(
		func(n int) string { return "$" + strconv.Itoa(n) },
		func(t time.Time) any { return t.UTC() },
	)
}

// scopeSettings returns the app.scope / app.wholesaler_id values the
// row-level-security policies read.
func scopeSettings(scope models.Scope) (string, string) {
	switch {
	case scope.IsGlobal():
		return "global", ""
	case scope.Valid():
		return "tenant", scope.WholesalerID()
	default:
		return "none", ""
	}
}

const systemScope = "system"

// inTx runs fn in a transaction whose RLS settings match scopeName/wholesalerID.
func (s *Store) inTx(ctx context.Context, scopeName, wholesalerID string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT set_config('app.scope', $1, true), set_config('app.wholesaler_id', $2, true)`,
		scopeName, wholesalerID,
	); err != nil {
		return wrapErr("set scope", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

func (s *Store) inScope(ctx context.Context, scope models.Scope, fn func(tx pgx.Tx) error) error {
	name, wholesalerID := scopeSettings(scope)
	return s.inTx(ctx, name, wholesalerID, fn)
}

func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %v", op, storage.ErrStorage, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
