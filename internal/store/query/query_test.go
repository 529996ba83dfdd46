package query

import (
	"testing"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestBuyerFilter_Postgres(t *testing.T) {
	w := BuyerFilter(Postgres, core.ListQuery{
		City:   "Mohali",
		Status: "New",
		Search: "jane",
	})

	assert.Equal(t,
		` WHERE city = $1 AND status = $2 AND (full_name ILIKE $3 ESCAPE '\' OR phone ILIKE $4 ESCAPE '\' OR email ILIKE $5 ESCAPE '\')`,
		w.SQL())
	assert.Equal(t, []any{"Mohali", "New", "%jane%", "%jane%", "%jane%"}, w.Args())
}

func TestBuyerFilter_SQLite(t *testing.T) {
	w := BuyerFilter(SQLite, core.ListQuery{PropertyType: "Plot", Timeline: ">6m"})

	assert.Equal(t, " WHERE property_type = ? AND timeline = ?", w.SQL())
	assert.Equal(t, []any{"Plot", ">6m"}, w.Args())
}

func TestBuyerFilter_Empty(t *testing.T) {
	w := BuyerFilter(Postgres, core.ListQuery{})
	assert.Equal(t, "", w.SQL())
	assert.Empty(t, w.Args())
}

func TestSearch_EscapesWildcards(t *testing.T) {
	w := NewWhere(SQLite)
	w.Search(`50%_off\`, "notes")
	assert.Equal(t, []any{`%50\%\_off\\%`}, w.Args())
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort *core.SortSpec
		want string
	}{
		{"default", nil, " ORDER BY updated_at DESC, id ASC"},
		{"updated asc", &core.SortSpec{Field: core.SortUpdatedAt}, " ORDER BY updated_at ASC, id ASC"},
		{"name desc", &core.SortSpec{Field: core.SortFullName, Desc: true}, " ORDER BY full_name DESC, id ASC"},
		{"unknown falls back", &core.SortSpec{Field: "phone; DROP TABLE buyers"}, " ORDER BY updated_at DESC, id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderBy(tt.sort))
		})
	}
}

func TestPage(t *testing.T) {
	w := BuyerFilter(Postgres, core.ListQuery{City: "Other"})
	got := Page(w, 3, 10)
	assert.Equal(t, " LIMIT $2 OFFSET $3", got)
	assert.Equal(t, []any{"Other", 10, 20}, w.Args())

	unpaged := NewWhere(Postgres)
	assert.Equal(t, "", Page(unpaged, 1, 0))
	assert.Empty(t, unpaged.Args())
}
