package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/store/query"
	"github.com/google/uuid"
)

const buyerColumns = `id, owner_id, full_name, email, phone, city, property_type, bhk,
	purpose, budget_min, budget_max, timeline, source, notes, tags, status, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func micros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(n int64) time.Time {
	return time.UnixMicro(n).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func scanBuyer(row scanner) (core.Buyer, error) {
	var (
		b                    core.Buyer
		id, owner, tags      string
		email, bhk, notes    sql.NullString
		budgetMin, budgetMax sql.NullInt64
		updatedAt            int64
	)
	err := row.Scan(
		&id, &owner, &b.FullName, &email, &b.Phone, &b.City, &b.PropertyType, &bhk,
		&b.Purpose, &budgetMin, &budgetMax, &b.Timeline, &b.Source, &notes, &tags,
		&b.Status, &updatedAt,
	)
	if err != nil {
		return core.Buyer{}, err
	}
	if b.ID, err = uuid.Parse(id); err != nil {
		return core.Buyer{}, fmt.Errorf("buyer id: %w", err)
	}
	if b.OwnerID, err = uuid.Parse(owner); err != nil {
		return core.Buyer{}, fmt.Errorf("owner id: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
		return core.Buyer{}, fmt.Errorf("decode tags: %w", err)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	b.Email = fromNullString(email)
	b.BHK = fromNullString(bhk)
	b.Notes = fromNullString(notes)
	b.BudgetMin = fromNullInt(budgetMin)
	b.BudgetMax = fromNullInt(budgetMax)
	b.UpdatedAt = fromMicros(updatedAt)
	return b, nil
}

func getBuyer(ctx context.Context, q execer, id uuid.UUID) (core.Buyer, error) {
	b, err := scanBuyer(q.QueryRowContext(ctx,
		`SELECT `+buyerColumns+` FROM buyers WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Buyer{}, core.ErrNotFound
	}
	if err != nil {
		return core.Buyer{}, fmt.Errorf("get buyer: %w", err)
	}
	return b, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func insertBuyer(ctx context.Context, q execer, b core.Buyer) error {
	tags, err := encodeTags(b.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO buyers (`+buyerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.OwnerID.String(), b.FullName, nullString(b.Email), b.Phone, b.City,
		b.PropertyType, nullString(b.BHK), b.Purpose, nullInt(b.BudgetMin), nullInt(b.BudgetMax),
		b.Timeline, b.Source, nullString(b.Notes), tags, b.Status, micros(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert buyer: %w", err)
	}
	return nil
}

func updateBuyer(ctx context.Context, q execer, b core.Buyer, prior time.Time) (bool, error) {
	tags, err := encodeTags(b.Tags)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, `UPDATE buyers SET
		full_name = ?, email = ?, phone = ?, city = ?, property_type = ?, bhk = ?,
		purpose = ?, budget_min = ?, budget_max = ?, timeline = ?, source = ?,
		notes = ?, tags = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND updated_at = ?`,
		b.FullName, nullString(b.Email), b.Phone, b.City, b.PropertyType, nullString(b.BHK),
		b.Purpose, nullInt(b.BudgetMin), nullInt(b.BudgetMax), b.Timeline, b.Source,
		nullString(b.Notes), tags, b.Status, micros(b.UpdatedAt),
		b.ID.String(), b.OwnerID.String(), micros(prior),
	)
	if err != nil {
		return false, fmt.Errorf("update buyer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update buyer: %w", err)
	}
	return n == 1, nil
}

func listBuyers(ctx context.Context, q execer, lq core.ListQuery) ([]core.Buyer, int64, error) {
	where := query.BuyerFilter(query.SQLite, lq)

	var total int64
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM buyers`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count buyers: %w", err)
	}

	stmt := `SELECT ` + buyerColumns + ` FROM buyers` + where.SQL() + query.OrderBy(lq.Sort)
	stmt += query.Page(where, lq.Page, lq.PageSize)

	rows, err := q.QueryContext(ctx, stmt, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list buyers: %w", err)
	}
	defer rows.Close()

	var buyers []core.Buyer
	for rows.Next() {
		b, err := scanBuyer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan buyer: %w", err)
		}
		buyers = append(buyers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list buyers: %w", err)
	}
	return buyers, total, nil
}

func insertHistory(ctx context.Context, q execer, h core.HistoryEntry) error {
	diff, err := json.Marshal(h.Diff)
	if err != nil {
		return fmt.Errorf("encode diff: %w", err)
	}
	_, err = q.ExecContext(ctx, `INSERT INTO buyer_history (id, buyer_id, changed_by, changed_at, diff)
		VALUES (?, ?, ?, ?, ?)`,
		h.ID.String(), h.BuyerID.String(), h.ChangedBy.String(), micros(h.ChangedAt), string(diff),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func listHistory(ctx context.Context, q execer, buyerID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, buyer_id, changed_by, changed_at, diff
		FROM buyer_history WHERE buyer_id = ?
		ORDER BY changed_at DESC, id DESC LIMIT ?`,
		buyerID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []core.HistoryEntry
	for rows.Next() {
		var (
			h                    core.HistoryEntry
			id, buyer, changedBy string
			changedAt            int64
			diff                 string
		)
		if err := rows.Scan(&id, &buyer, &changedBy, &changedAt, &diff); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(diff), &h.Diff); err != nil {
			return nil, fmt.Errorf("decode diff: %w", err)
		}
		var err error
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("history id: %w", err)
		}
		if h.BuyerID, err = uuid.Parse(buyer); err != nil {
			return nil, fmt.Errorf("history buyer id: %w", err)
		}
		if h.ChangedBy, err = uuid.Parse(changedBy); err != nil {
			return nil, fmt.Errorf("history changed_by: %w", err)
		}
		h.ChangedAt = fromMicros(changedAt)
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

