package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/store/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const buyerColumns = `id, owner_id, full_name, email, phone, city, property_type, bhk,
	purpose, budget_min, budget_max, timeline, source, notes, tags, status, updated_at`

func scanBuyer(row pgx.Row) (core.Buyer, error) {
	var (
		b                    core.Buyer
		id, owner            pgtype.UUID
		email, bhk, notes    pgtype.Text
		budgetMin, budgetMax pgtype.Int8
		updatedAt            pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &owner, &b.FullName, &email, &b.Phone, &b.City, &b.PropertyType, &bhk,
		&b.Purpose, &budgetMin, &budgetMax, &b.Timeline, &b.Source, &notes, &b.Tags,
		&b.Status, &updatedAt,
	)
	if err != nil {
		return core.Buyer{}, err
	}
	b.ID = fromPgUUID(id)
	b.OwnerID = fromPgUUID(owner)
	b.Email = fromPgText(email)
	b.BHK = fromPgText(bhk)
	b.Notes = fromPgText(notes)
	b.BudgetMin = fromPgInt(budgetMin)
	b.BudgetMax = fromPgInt(budgetMax)
	b.UpdatedAt = updatedAt.Time.UTC()
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, nil
}

func getBuyer(ctx context.Context, q querier, id uuid.UUID, lock bool) (core.Buyer, error) {
	sql := `SELECT ` + buyerColumns + ` FROM buyers WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	b, err := scanBuyer(q.QueryRow(ctx, sql, pgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Buyer{}, core.ErrNotFound
	}
	if err != nil {
		return core.Buyer{}, fmt.Errorf("get buyer: %w", err)
	}
	return b, nil
}

func buyerArgs(b core.Buyer) []any {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		pgUUID(b.ID), pgUUID(b.OwnerID), b.FullName, pgText(b.Email), b.Phone, b.City,
		b.PropertyType, pgText(b.BHK), b.Purpose, pgInt(b.BudgetMin), pgInt(b.BudgetMax),
		b.Timeline, b.Source, pgText(b.Notes), tags, b.Status,
		pgtype.Timestamptz{Time: b.UpdatedAt, Valid: true},
	}
}

func insertBuyer(ctx context.Context, q querier, b core.Buyer) error {
	_, err := q.Exec(ctx, `INSERT INTO buyers (`+buyerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		buyerArgs(b)...,
	)
	if err != nil {
		return fmt.Errorf("insert buyer: %w", err)
	}
	return nil
}

// updateBuyer rewrites every editable column where updated_at still equals
// prior. Owner and id never change.
func updateBuyer(ctx context.Context, q querier, b core.Buyer, prior time.Time) (bool, error) {
	args := buyerArgs(b)
	args = append(args, pgtype.Timestamptz{Time: prior, Valid: true})
	tag, err := q.Exec(ctx, `UPDATE buyers SET
		full_name = $3, email = $4, phone = $5, city = $6, property_type = $7, bhk = $8,
		purpose = $9, budget_min = $10, budget_max = $11, timeline = $12, source = $13,
		notes = $14, tags = $15, status = $16, updated_at = $17
		WHERE id = $1 AND owner_id = $2 AND updated_at = $18`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update buyer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func listBuyers(ctx context.Context, q querier, lq core.ListQuery) ([]core.Buyer, int64, error) {
	where := query.BuyerFilter(query.Postgres, lq)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM buyers`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count buyers: %w", err)
	}

	sql := `SELECT ` + buyerColumns + ` FROM buyers` + where.SQL() + query.OrderBy(lq.Sort)
	sql += query.Page(where, lq.Page, lq.PageSize)

	rows, err := q.Query(ctx, sql, where.Args()...)
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

func insertHistory(ctx context.Context, q querier, h core.HistoryEntry) error {
	diff, err := json.Marshal(h.Diff)
	if err != nil {
		return fmt.Errorf("encode diff: %w", err)
	}
	_, err = q.Exec(ctx, `INSERT INTO buyer_history (id, buyer_id, changed_by, changed_at, diff)
		VALUES ($1, $2, $3, $4, $5)`,
		pgUUID(h.ID), pgUUID(h.BuyerID), pgUUID(h.ChangedBy),
		pgtype.Timestamptz{Time: h.ChangedAt, Valid: true}, diff,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func listHistory(ctx context.Context, q querier, buyerID uuid.UUID, limit int) ([]core.HistoryEntry, error) {
	rows, err := q.Query(ctx, `SELECT id, buyer_id, changed_by, changed_at, diff
		FROM buyer_history WHERE buyer_id = $1
		ORDER BY changed_at DESC, id DESC LIMIT $2`,
		pgUUID(buyerID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []core.HistoryEntry
	for rows.Next() {
		var (
			h                    core.HistoryEntry
			id, buyer, changedBy pgtype.UUID
			changedAt            pgtype.Timestamptz
			diff                 []byte
		)
		if err := rows.Scan(&id, &buyer, &changedBy, &changedAt, &diff); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(diff, &h.Diff); err != nil {
			return nil, fmt.Errorf("decode diff: %w", err)
		}
		h.ID = fromPgUUID(id)
		h.BuyerID = fromPgUUID(buyer)
		h.ChangedBy = fromPgUUID(changedBy)
		h.ChangedAt = changedAt.Time.UTC()
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
