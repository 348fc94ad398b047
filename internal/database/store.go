package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/estates/internal/core"
)

// Store implements core.Store on a pgx pool. Every unit of work owns one
// transaction.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ReadTx runs fn in a REPEATABLE READ, READ ONLY transaction.
func (s *Store) ReadTx(ctx context.Context, fn func(core.Repository) error) error {
	return s.inTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

// WriteTx runs fn in a read-write transaction. fn returning nil commits.
func (s *Store) WriteTx(ctx context.Context, fn func(core.Repository) error) error {
	return s.inTx(ctx, pgx.TxOptions{}, fn)
}

// Ping verifies a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) inTx(ctx context.Context, opts pgx.TxOptions, fn func(core.Repository) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if err := fn(New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", translateError(err))
	}
	return nil
}
