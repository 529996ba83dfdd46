// Package core provides the business logic for buyer lead intake.
//
// This package holds all domain logic independent of any UI, transport or
// storage engine. It is used by the web handlers, the leadctl CLI and tests
// without modification.
//
// # Architecture
//
// The package is organized around a small pipeline:
//
//   - Validation: [ValidateCreate], [ValidateUpdate] and [ValidateCSVRow] turn a
//     candidate buyer into normalized [BuyerFields] or [ValidationErrors].
//   - CSV parsing: [ParseCSV] splits raw file bytes into header-keyed rows.
//   - Batch validation: [ValidateBatch] runs every row through the validator and
//     reports all failures at once, numbered as the user sees them in the file.
//   - Diffing: [Diff] compares a stored [Buyer] to a validated update and yields
//     a field-level [ChangeSet].
//   - Service: [Service] persists creates, updates, deletes and imports through a
//     [Store], writing a [HistoryEntry] in the same transaction.
//
// # Import Flow
//
//	raw CSV -> ParseCSV -> ValidateBatch -> Service.ImportBatch
//
// [Service.PreviewImport] runs the same steps without writing. Imports pass
// through an [ImportLimiter] so only a few hold a transaction at once.
//
// A batch is all-or-nothing. If any row fails validation nothing is written and
// the caller receives every row error. If any insert fails the transaction rolls
// back and no partial batch is visible.
//
// # Optimistic Concurrency
//
// Every buyer carries UpdatedAt. [Service.UpdateBuyer] requires the caller to
// send back the UpdatedAt it last read; a mismatch fails with [ErrConflict]
// before validation runs, and the UPDATE statement itself is guarded by the
// same timestamp.
//
// # Error Handling
//
// Domain failures are sentinel errors checked with errors.Is. Technical errors
// are mapped to user-friendly messages using [MapError]. Each category has a
// code for support reference:
//
//   - VAL001-VAL006: Validation errors
//   - CSV001-CSV004: Import file errors
//   - BUY001-BUY003: Buyer lookup and concurrency errors
//   - DB001-DB007: Database errors
//   - RATE001, RATE002, AUTH001: Throttling and session errors
package core
