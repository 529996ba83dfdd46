package core

import (
	"time"

	"github.com/google/uuid"
)

// Creation markers stored under the "created" key of a history change set.
const (
	HistoryCreatedKey = "created"
	CreatedByForm     = "created"
	CreatedByImport   = "imported"
)

func creationChangeSet(how string) ChangeSet {
	return ChangeSet{HistoryCreatedKey: {Old: nil, New: how}}
}

func newHistory(buyerID, actor uuid.UUID, at time.Time, diff ChangeSet) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		ChangedBy: actor,
		ChangedAt: at,
		Diff:      diff,
	}
}

// IsCreation reports whether the entry records a create or import rather
// than a field edit.
func (h HistoryEntry) IsCreation() bool {
	_, ok := h.Diff[HistoryCreatedKey]
	return ok && len(h.Diff) == 1
}

// Fields returns the changed field names in CSV column order.
func (c ChangeSet) Fields() []string {
	out := make([]string, 0, len(c))
	for _, col := range CSVColumns {
		if _, ok := c[col]; ok {
			out = append(out, col)
		}
	}
	if _, ok := c[HistoryCreatedKey]; ok {
		out = append(out, HistoryCreatedKey)
	}
	return out
}
