package core

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// buyerMutations counts create/update/delete calls by outcome.
	buyerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buyerleads_buyer_mutations_total",
		Help: "Buyer create, update and delete operations by result",
	}, []string{"op", "result"})

	// importBatches counts CSV imports by outcome.
	importBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buyerleads_import_batches_total",
		Help: "CSV import batches by result",
	}, []string{"result"})

	importRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buyerleads_import_rows_total",
		Help: "Buyer rows committed by CSV import",
	})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buyerleads_import_duration_seconds",
		Help:    "End-to-end CSV import duration",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
	})

	historyEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buyerleads_history_entries_total",
		Help: "History entries written",
	})
)

// resultLabel buckets an error into a low-cardinality metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrTooManyImports):
		return "rate_limited"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBatchInvalid):
		return "invalid"
	case errors.Is(err, ErrParse):
		return "parse_error"
	default:
		return "error"
	}
}

func observeMutation(op string, err error) {
	buyerMutations.WithLabelValues(op, resultLabel(err)).Inc()
}

func observeImport(start time.Time, inserted int, err error) {
	importBatches.WithLabelValues(resultLabel(err)).Inc()
	importDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		importRows.Add(float64(inserted))
	}
}
