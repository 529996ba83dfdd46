// Package postgres implements core.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/config"
	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a core.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New wraps an existing pool. Close closes the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens and pings a pool configured from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(pool), nil
}

// DatabaseName returns the database path component of a connection URL, for
// logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// WithTx runs fn inside a transaction. The deferred rollback is a no-op after
// a successful commit and also covers panics in fn.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetBuyer(ctx context.Context, id uuid.UUID) (core.Buyer, error) {
	return getBuyer(ctx, s.pool, id, false)
}

func (s *Store) ListBuyers(ctx context.Context, q core.ListQuery) ([]core.Buyer, int64, error) {
	return listBuyers(ctx, s.pool, q)
}

func (s *Store) ListHistory(ctx context.Context, buyerID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	return listHistory(ctx, s.pool, buyerID, limit)
}

// pgTx implements core.Tx on a pgx transaction.
type pgTx struct {
	q querier
}

func (t *pgTx) GetBuyerForUpdate(ctx context.Context, id uuid.UUID) (core.Buyer, error) {
	return getBuyer(ctx, t.q, id, true)
}

func (t *pgTx) InsertBuyer(ctx context.Context, b core.Buyer) error {
	return insertBuyer(ctx, t.q, b)
}

func (t *pgTx) UpdateBuyer(ctx context.Context, b core.Buyer, prior time.Time) (bool, error) {
	return updateBuyer(ctx, t.q, b, prior)
}

func (t *pgTx) DeleteBuyer(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM buyers WHERE id = $1`, pgUUID(id))
	if err != nil {
		return false, fmt.Errorf("delete buyer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) InsertHistory(ctx context.Context, h core.HistoryEntry) error {
	return insertHistory(ctx, t.q, h)
}
