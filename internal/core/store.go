package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract the service depends on. Implementations
// live under internal/store and must roll back a transaction completely when
// fn returns an error or ctx is cancelled.
type Store interface {
	// WithTx runs fn in one transaction, committing only if fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// GetBuyer returns ErrNotFound if no buyer has the id.
	GetBuyer(ctx context.Context, id uuid.UUID) (Buyer, error)

	// ListBuyers returns one page of matches and the total match count.
	ListBuyers(ctx context.Context, q ListQuery) ([]Buyer, int64, error)

	// ListHistory returns the newest entries first.
	ListHistory(ctx context.Context, buyerID uuid.UUID, limit int) ([]HistoryEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

// Tx is the write side of a Store, scoped to one transaction.
type Tx interface {
	// GetBuyerForUpdate reads and locks a buyer. ErrNotFound if missing.
	GetBuyerForUpdate(ctx context.Context, id uuid.UUID) (Buyer, error)

	InsertBuyer(ctx context.Context, b Buyer) error

	// UpdateBuyer writes b only where the stored updated_at equals prior.
	// It reports false, without error, when no row matched.
	UpdateBuyer(ctx context.Context, b Buyer, prior time.Time) (bool, error)

	// DeleteBuyer removes the buyer and, by cascade, its history.
	DeleteBuyer(ctx context.Context, id uuid.UUID) (bool, error)

	InsertHistory(ctx context.Context, h HistoryEntry) error
}

// Limiter decides whether a keyed operation may proceed.
type Limiter interface {
	Allow(key string) bool
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }
