package core

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// GetBuyer returns one buyer. Any signed-in user may read any buyer.
func (s *Service) GetBuyer(ctx context.Context, id uuid.UUID) (Buyer, error) {
	b, err := s.store.GetBuyer(ctx, id)
	if err != nil {
		return Buyer{}, persistence("get buyer", err)
	}
	return b, nil
}

// ListBuyers returns a filtered, sorted page of buyers.
// Default order is most recently updated first.
func (s *Service) ListBuyers(ctx context.Context, q ListQuery) (BuyerPage, error) {
	q, err := s.normalizeQuery(q, false)
	if err != nil {
		return BuyerPage{}, err
	}

	buyers, total, err := s.store.ListBuyers(ctx, q)
	if err != nil {
		return BuyerPage{}, persistence("list buyers", err)
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	if buyers == nil {
		buyers = []Buyer{}
	}
	return BuyerPage{
		Buyers:     buyers,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// BuyerHistory returns the newest history entries for a buyer.
// limit <= 0 uses the configured default; it is capped at the configured max.
func (s *Service) BuyerHistory(ctx context.Context, id uuid.UUID, limit int) ([]HistoryEntry, error) {
	if _, err := s.store.GetBuyer(ctx, id); err != nil {
		return nil, persistence("get buyer", err)
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}
	entries, err := s.store.ListHistory(ctx, id, limit)
	if err != nil {
		return nil, persistence("list history", err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

// normalizeQuery trims filters, checks sort and enum filter values, and
// clamps paging. unpaged clears paging for export.
func (s *Service) normalizeQuery(q ListQuery, unpaged bool) (ListQuery, error) {
	q.City = strings.TrimSpace(q.City)
	q.PropertyType = strings.TrimSpace(q.PropertyType)
	q.Status = strings.TrimSpace(q.Status)
	q.Timeline = strings.TrimSpace(q.Timeline)
	q.Search = strings.TrimSpace(q.Search)

	var errs ValidationErrors
	for field, v := range map[string]string{
		"city":         q.City,
		"propertyType": q.PropertyType,
		"status":       q.Status,
		"timeline":     q.Timeline,
	} {
		if v != "" && !inSet(enumSets[field], v) {
			errs = append(errs, ValidationError{Field: field, Value: v, Message: "must be one of: " + enumList(field)})
		}
	}
	if q.Sort != nil && q.Sort.Field != SortUpdatedAt && q.Sort.Field != SortFullName {
		errs = append(errs, ValidationError{Field: "sort", Value: q.Sort.Field, Message: "must be updatedAt or fullName"})
	}
	if len(errs) > 0 {
		slices.SortFunc(errs, func(a, b ValidationError) int {
			return strings.Compare(a.Field, b.Field)
		})
		return ListQuery{}, errs
	}

	if unpaged {
		q.Page, q.PageSize = 1, 0
		return q, nil
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.cfg.DefaultPageSize
	}
	if q.PageSize > s.cfg.MaxPageSize {
		q.PageSize = s.cfg.MaxPageSize
	}
	return q, nil
}
