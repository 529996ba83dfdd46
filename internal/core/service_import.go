package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/logging"
	"github.com/google/uuid"
)

// ImportBatch stores already-validated buyers in one transaction, each with an
// "imported" history entry. Any failure rolls back the whole batch.
// Records must come from ValidateBatch or ValidateCreate.
func (s *Service) ImportBatch(ctx context.Context, actor uuid.UUID, records []BuyerFields) (int, error) {
	if err := s.gate(actor); err != nil {
		return 0, err
	}
	return s.importBatch(ctx, actor, records)
}

func (s *Service) importBatch(ctx context.Context, actor uuid.UUID, records []BuyerFields) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// Consecutive timestamps keep file order when exporting by updatedAt.
	base := s.timestamp()

	err := s.store.WithTx(ctx, func(tx Tx) error {
		for i, fields := range records {
			b := Buyer{
				ID:          uuid.New(),
				OwnerID:     actor,
				BuyerFields: fields,
				UpdatedAt:   base.Add(time.Duration(i) * time.Microsecond),
			}
			if err := tx.InsertBuyer(ctx, b); err != nil {
				return fmt.Errorf("insert record %d: %w", i+1, err)
			}
			h := newHistory(b.ID, actor, b.UpdatedAt, creationChangeSet(CreatedByImport))
			if err := tx.InsertHistory(ctx, h); err != nil {
				return fmt.Errorf("insert history for record %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, persistence("import batch", err)
	}
	historyEntries.Add(float64(len(records)))
	return len(records), nil
}

// ImportCSV parses, validates and imports a CSV file for actor.
//
// On ErrBatchInvalid the result carries every row error and ValidCount; no
// row was written. Parse failures (ErrEmptyInput, ErrBatchTooLarge,
// ErrMalformedCSV) happen before any row is validated. Only
// MaxConcurrentImports imports run at once; past ImportWait the call fails
// with ErrTooManyImports.
func (s *Service) ImportCSV(ctx context.Context, actor uuid.UUID, data []byte) (res ImportResult, err error) {
	start := time.Now()
	defer func() { observeImport(start, res.Inserted, err) }()

	if err := s.gate(actor); err != nil {
		return ImportResult{}, err
	}

	log := logging.WithFields(ctx, "actor", actor, "bytes", len(data))

	rows, err := ParseCSV(data, s.cfg.MaxImportRows)
	if err != nil {
		log.Info("import rejected", "error", err)
		return ImportResult{}, err
	}
	if len(rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: header has no data rows", ErrEmptyInput)
	}

	if err := s.imports.Acquire(ctx); err != nil {
		log.Warn("import waited too long for a slot", "error", err)
		return ImportResult{}, err
	}
	defer s.imports.Release()

	batch := ValidateBatch(rows)
	if !batch.OK() {
		log.Info("import has invalid rows",
			"rows", len(rows),
			"invalid", len(batch.Errors),
			"valid", batch.ValidCount,
		)
		return ImportResult{ValidCount: batch.ValidCount, Errors: batch.Errors}, ErrBatchInvalid
	}

	n, err := s.importBatch(ctx, actor, batch.Valid)
	if err != nil {
		log.Error("import failed", "error", err)
		return ImportResult{ValidCount: batch.ValidCount}, err
	}

	log.Info("import committed", "inserted", n, "duration_ms", time.Since(start).Milliseconds())
	return ImportResult{Inserted: n, ValidCount: batch.ValidCount}, nil
}
