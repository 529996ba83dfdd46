package core

import (
	"time"

	"github.com/google/uuid"
)

// BuyerFields holds the user-editable fields of a buyer lead.
//
// Validation tags use json field names as error paths. Optional values are
// pointers so "absent" and "empty" stay distinguishable until normalization.
type BuyerFields struct {
	FullName     string   `json:"fullName" validate:"required,min=2,max=80"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"required,number,min=10,max=15"`
	City         string   `json:"city" validate:"required,enum=city"`
	PropertyType string   `json:"propertyType" validate:"required,enum=propertyType"`
	BHK          *string  `json:"bhk" validate:"omitempty,enum=bhk"`
	Purpose      string   `json:"purpose" validate:"required,enum=purpose"`
	BudgetMin    *int     `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax    *int     `json:"budgetMax" validate:"omitempty,min=0"`
	Timeline     string   `json:"timeline" validate:"required,enum=timeline"`
	Source       string   `json:"source" validate:"required,enum=source"`
	Notes        *string  `json:"notes" validate:"omitempty,max=1000"`
	Tags         []string `json:"tags"`
	Status       string   `json:"status" validate:"required,enum=status"`
}

// clone returns a copy that shares no pointers or slices with f.
func (f BuyerFields) clone() BuyerFields {
	out := f
	out.Email = clonePtr(f.Email)
	out.BHK = clonePtr(f.BHK)
	out.BudgetMin = clonePtr(f.BudgetMin)
	out.BudgetMax = clonePtr(f.BudgetMax)
	out.Notes = clonePtr(f.Notes)
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Buyer is a persisted buyer lead.
type Buyer struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"ownerId"`
	BuyerFields
	// UpdatedAt is the concurrency token. Writers must present the value they
	// last read.
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldChange is the before/after value of one field. Nil means absent.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet maps field names to their old/new value pair.
type ChangeSet map[string]FieldChange

// HistoryEntry is an append-only record of one create, import or update.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	BuyerID   uuid.UUID `json:"buyerId"`
	ChangedBy uuid.UUID `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Diff      ChangeSet `json:"diff"`
}

// SortSpec is a single ORDER BY column. Field uses json names.
type SortSpec struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Sortable buyer fields.
const (
	SortUpdatedAt = "updatedAt"
	SortFullName  = "fullName"
)

// ListQuery selects a page of buyers.
type ListQuery struct {
	City         string
	PropertyType string
	Status       string
	Timeline     string
	// Search matches fullName, phone or email, case-insensitively.
	Search string
	Sort   *SortSpec
	Page   int
	// PageSize <= 0 returns every match. Used by export.
	PageSize int
}

// BuyerPage is one page of list results.
type BuyerPage struct {
	Buyers     []Buyer `json:"buyers"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

// RowError reports why one CSV data row failed validation.
type RowError struct {
	// Row is the 1-based line number as the user sees it, counting the header.
	Row     int               `json:"row"`
	Message string            `json:"message"`
	Fields  []ValidationError `json:"fields,omitempty"`
}

// BatchResult is the outcome of validating a parsed CSV batch.
type BatchResult struct {
	Valid      []BuyerFields `json:"-"`
	Errors     []RowError    `json:"errors,omitempty"`
	ValidCount int           `json:"validCount"`
}

// OK reports whether every row validated.
func (r BatchResult) OK() bool {
	return len(r.Errors) == 0
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Inserted   int        `json:"inserted"`
	ValidCount int        `json:"validCount"`
	Errors     []RowError `json:"errors,omitempty"`
}
