// Package sqlite implements core.Store on an embedded SQLite database. It
// backs tests and single-user local runs; timestamps are stored as unix
// microseconds and tags and diffs as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a core.Store on database/sql with the modernc driver.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens dsn, enables foreign keys and applies the schema.
// One connection serializes writers, which also keeps :memory: databases
// shared across calls.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetBuyer(ctx context.Context, id uuid.UUID) (core.Buyer, error) {
	return getBuyer(ctx, s.db, id)
}

func (s *Store) ListBuyers(ctx context.Context, q core.ListQuery) ([]core.Buyer, int64, error) {
	return listBuyers(ctx, s.db, q)
}

func (s *Store) ListHistory(ctx context.Context, buyerID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	return listHistory(ctx, s.db, buyerID, limit)
}

type sqlTx struct {
	q execer
}

// GetBuyerForUpdate needs no row lock: SQLite holds the database write lock
// for the whole transaction once it writes, and the pool has one connection.
func (t *sqlTx) GetBuyerForUpdate(ctx context.Context, id uuid.UUID) (core.Buyer, error) {
	return getBuyer(ctx, t.q, id)
}

func (t *sqlTx) InsertBuyer(ctx context.Context, b core.Buyer) error {
	return insertBuyer(ctx, t.q, b)
}

func (t *sqlTx) UpdateBuyer(ctx context.Context, b core.Buyer, prior time.Time) (bool, error) {
	return updateBuyer(ctx, t.q, b, prior)
}

func (t *sqlTx) DeleteBuyer(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := t.q.ExecContext(ctx, `DELETE FROM buyers WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete buyer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete buyer: %w", err)
	}
	return n == 1, nil
}

func (t *sqlTx) InsertHistory(ctx context.Context, h core.HistoryEntry) error {
	return insertHistory(ctx, t.q, h)
}
