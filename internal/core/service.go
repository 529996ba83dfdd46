package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/logging"
	"github.com/google/uuid"
)

// ServiceConfig tunes limits the service enforces.
type ServiceConfig struct {
	MaxImportRows   int
	DefaultPageSize int
	MaxPageSize     int
	HistoryLimit    int
	MaxHistoryLimit int
	// MaxConcurrentImports and ImportWait configure the import gate.
	MaxConcurrentImports int
	ImportWait           time.Duration
}

// DefaultServiceConfig returns the limits used when a field is zero.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxImportRows:   DefaultMaxImportRows,
		DefaultPageSize: 10,
		MaxPageSize:     100,
		HistoryLimit:    5,
		MaxHistoryLimit: 50,

		MaxConcurrentImports: DefaultMaxConcurrentImports,
		ImportWait:           DefaultImportWait,
	}
}

// Service provides the core business logic for buyer leads.
type Service struct {
	store   Store
	limiter Limiter
	imports *ImportLimiter
	cfg     ServiceConfig
	now     func() time.Time
}

// NewService creates a Service. A nil limiter allows everything.
func NewService(store Store, limiter Limiter, cfg ServiceConfig) *Service {
	if limiter == nil {
		limiter = allowAll{}
	}
	def := DefaultServiceConfig()
	if cfg.MaxImportRows <= 0 {
		cfg.MaxImportRows = def.MaxImportRows
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = def.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = def.MaxPageSize
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.MaxHistoryLimit <= 0 {
		cfg.MaxHistoryLimit = def.MaxHistoryLimit
	}
	if cfg.MaxConcurrentImports <= 0 {
		cfg.MaxConcurrentImports = def.MaxConcurrentImports
	}
	if cfg.ImportWait <= 0 {
		cfg.ImportWait = def.ImportWait
	}
	return &Service{
		store:   store,
		limiter: limiter,
		imports: NewImportLimiter(cfg.MaxConcurrentImports, cfg.ImportWait),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Config returns the effective limits.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.WaitForDrain(ctx)
}

// ActiveImports returns the number of imports in progress.
func (s *Service) ActiveImports() int {
	return s.imports.Active()
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// gate consults the limiter before any state is read.
func (s *Service) gate(actor uuid.UUID) error {
	if !s.limiter.Allow("mutate:" + actor.String()) {
		return ErrRateLimited
	}
	return nil
}

// timestamp returns the current time at the precision both stores keep.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextTimestamp returns a timestamp strictly after prior, so a concurrency
// token always changes on write.
func (s *Service) nextTimestamp(prior time.Time) time.Time {
	ts := s.timestamp()
	if !ts.After(prior) {
		ts = prior.Add(time.Microsecond)
	}
	return ts
}

// CreateBuyer validates and stores a new buyer owned by actor, with one
// creation history entry.
func (s *Service) CreateBuyer(ctx context.Context, actor uuid.UUID, in BuyerFields) (b Buyer, err error) {
	defer func() { observeMutation("create", err) }()

	if err := s.gate(actor); err != nil {
		return Buyer{}, err
	}

	fields, err := ValidateCreate(in)
	if err != nil {
		return Buyer{}, err
	}

	b = Buyer{
		ID:          uuid.New(),
		OwnerID:     actor,
		BuyerFields: fields,
		UpdatedAt:   s.timestamp(),
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertBuyer(ctx, b); err != nil {
			return err
		}
		return tx.InsertHistory(ctx, newHistory(b.ID, actor, b.UpdatedAt, creationChangeSet(CreatedByForm)))
	})
	if err != nil {
		return Buyer{}, persistence("create buyer", err)
	}
	historyEntries.Inc()

	logging.WithFields(ctx, "buyer_id", b.ID, "actor", actor).Info("buyer created")
	return b, nil
}

// UpdateResult is a persisted update and what it changed.
type UpdateResult struct {
	Buyer   Buyer     `json:"buyer"`
	Changes ChangeSet `json:"changes"`
}

// UpdateBuyer replaces the editable fields of a buyer.
//
// in is the full merged state. prior is the UpdatedAt the caller last read.
// Checks run in order: NotFound, Forbidden (reported as NotFound), Conflict,
// then validation. A history entry is written only when something changed.
func (s *Service) UpdateBuyer(ctx context.Context, id, actor uuid.UUID, prior time.Time, in BuyerFields) (UpdateResult, error) {
	return s.updateBuyer(ctx, id, actor, prior, func(BuyerFields) (BuyerFields, error) {
		return in, nil
	})
}

// PatchBuyer is UpdateBuyer for callers holding a partial change. merge gets
// a copy of the stored fields, read inside the transaction after the rate
// gate, and returns the full next state. An error from merge aborts the
// update unchanged.
func (s *Service) PatchBuyer(ctx context.Context, id, actor uuid.UUID, prior time.Time, merge func(current BuyerFields) (BuyerFields, error)) (UpdateResult, error) {
	return s.updateBuyer(ctx, id, actor, prior, merge)
}

func (s *Service) updateBuyer(ctx context.Context, id, actor uuid.UUID, prior time.Time, merge func(BuyerFields) (BuyerFields, error)) (res UpdateResult, err error) {
	defer func() { observeMutation("update", err) }()

	if err := s.gate(actor); err != nil {
		return UpdateResult{}, err
	}

	log := logging.WithFields(ctx, "buyer_id", id, "actor", actor)

	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetBuyerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.OwnerID != actor {
			return ErrForbidden
		}
		if !current.UpdatedAt.Equal(prior) {
			return ErrConflict
		}

		in, err := merge(current.BuyerFields.clone())
		if err != nil {
			return err
		}
		fields, err := ValidateUpdate(in)
		if err != nil {
			return err
		}

		changes := Diff(current.BuyerFields, fields)
		next := Buyer{
			ID:          current.ID,
			OwnerID:     current.OwnerID,
			BuyerFields: fields,
			UpdatedAt:   s.nextTimestamp(current.UpdatedAt),
		}

		ok, err := tx.UpdateBuyer(ctx, next, current.UpdatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}

		if len(changes) > 0 {
			if err := tx.InsertHistory(ctx, newHistory(id, actor, next.UpdatedAt, changes)); err != nil {
				return err
			}
		}

		res = UpdateResult{Buyer: next, Changes: changes}
		return nil
	})
	if err != nil {
		log.Debug("buyer update rejected", "error", err)
		return UpdateResult{}, persistence("update buyer", err)
	}
	if len(res.Changes) > 0 {
		historyEntries.Inc()
	}

	log.Info("buyer updated", "changed_fields", len(res.Changes), "ip", GetIPAddressFromContext(ctx))
	return res, nil
}

// DeleteBuyer removes a buyer owned by actor. History cascades with it.
func (s *Service) DeleteBuyer(ctx context.Context, id, actor uuid.UUID) (err error) {
	defer func() { observeMutation("delete", err) }()

	if err := s.gate(actor); err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetBuyerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.OwnerID != actor {
			return ErrForbidden
		}
		ok, err := tx.DeleteBuyer(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return persistence("delete buyer", err)
	}

	logging.WithFields(ctx, "buyer_id", id, "actor", actor).Info("buyer deleted")
	return nil
}
