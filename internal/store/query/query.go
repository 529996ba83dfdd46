// Package query builds the WHERE and ORDER BY clauses shared by the SQL
// stores. Values always travel as bind arguments; only whitelisted column
// names are ever interpolated.
package query

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/core"
)

// Dialect captures the syntax differences between the supported engines.
type Dialect struct {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string
	// Like is the case-insensitive LIKE operator.
	Like string
}

// Postgres uses $n markers and ILIKE.
var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Like:        "ILIKE",
}

// SQLite uses ? markers; its LIKE is already case-insensitive for ASCII.
var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Like:        "LIKE",
}

// Where accumulates AND-ed conditions and their arguments.
type Where struct {
	d     Dialect
	conds []string
	args  []any
}

// NewWhere starts an empty condition list.
func NewWhere(d Dialect) *Where {
	return &Where{d: d}
}

// Arg appends a bind argument and returns its marker.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return w.d.Placeholder(len(w.args))
}

// Eq adds col = v. Empty values are skipped so unset filters match everything.
func (w *Where) Eq(col, v string) {
	if v == "" {
		return
	}
	w.conds = append(w.conds, col+" = "+w.Arg(v))
}

// Search adds (col1 LIKE %v% OR col2 LIKE %v% ...). Wildcards in v are
// matched literally.
func (w *Where) Search(v string, cols ...string) {
	if v == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + escapeLike(v) + "%"
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf(`%s %s %s ESCAPE '\'`, col, w.d.Like, w.Arg(pattern))
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

// SQL returns " WHERE ..." or "" when there are no conditions.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the bind arguments in marker order.
func (w *Where) Args() []any {
	return w.args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// sortColumns whitelists sortable fields.
var sortColumns = map[string]string{
	core.SortUpdatedAt: "updated_at",
	core.SortFullName:  "full_name",
}

// BuyerFilter applies a ListQuery's filters and search.
func BuyerFilter(d Dialect, q core.ListQuery) *Where {
	w := NewWhere(d)
	w.Eq("city", q.City)
	w.Eq("property_type", q.PropertyType)
	w.Eq("status", q.Status)
	w.Eq("timeline", q.Timeline)
	w.Search(q.Search, "full_name", "phone", "email")
	return w
}

// OrderBy returns " ORDER BY ..." for sort, always ending with id ASC so
// paging and export are stable. A nil sort means updatedAt descending.
func OrderBy(sort *core.SortSpec) string {
	col, dir := "updated_at", "DESC"
	if sort != nil {
		if c, ok := sortColumns[sort.Field]; ok {
			col = c
			dir = "ASC"
			if sort.Desc {
				dir = "DESC"
			}
		}
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

// Page returns " LIMIT x OFFSET y" markers and appends their arguments to w.
// pageSize <= 0 means no limit.
func Page(w *Where, page, pageSize int) string {
	if pageSize <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	limit := w.Arg(pageSize)
	offset := w.Arg((page - 1) * pageSize)
	return fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
}
