// Package storetest is a conformance suite every core.Store implementation
// must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns an empty store. The suite closes it.
type Opener func(t *testing.T) core.Store

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// Buyer returns a valid buyer with the given name, updated at base+offset.
func Buyer(owner uuid.UUID, name string, offset time.Duration) core.Buyer {
	return core.Buyer{
		ID:      uuid.New(),
		OwnerID: owner,
		BuyerFields: core.BuyerFields{
			FullName:     name,
			Phone:        "9876543210",
			City:         "Chandigarh",
			PropertyType: "Plot",
			Purpose:      "Buy",
			Timeline:     "0-3m",
			Source:       "Website",
			Tags:         []string{},
			Status:       "New",
		},
		UpdatedAt: base.Add(offset),
	}
}

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s core.Store)
	}{
		{"RoundTrip", testRoundTrip},
		{"NotFound", testNotFound},
		{"RollbackOnError", testRollback},
		{"GuardedUpdate", testGuardedUpdate},
		{"DeleteCascadesHistory", testDeleteCascades},
		{"HistoryNewestFirst", testHistoryOrder},
		{"ListFiltersAndSearch", testListFilters},
		{"ListSortAndPage", testListPaging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

func insert(t *testing.T, s core.Store, buyers ...core.Buyer) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx core.Tx) error {
		for _, b := range buyers {
			if err := tx.InsertBuyer(context.Background(), b); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func history(buyerID, actor uuid.UUID, at time.Time, diff core.ChangeSet) core.HistoryEntry {
	return core.HistoryEntry{ID: uuid.New(), BuyerID: buyerID, ChangedBy: actor, ChangedAt: at, Diff: diff}
}

func testRoundTrip(t *testing.T, s core.Store) {
	ctx := context.Background()
	b := Buyer(uuid.New(), "Jane Roe", 0)
	b.Email = ptr("jane@example.com")
	b.PropertyType = "Apartment"
	b.BHK = ptr("2")
	b.BudgetMin = ptr(5000000)
	b.BudgetMax = ptr(7500000)
	b.Notes = ptr(`said "call after 6"`)
	b.Tags = []string{"hot", "nri"}
	b.UpdatedAt = base.Add(123 * time.Microsecond)
	insert(t, s, b)

	got, err := s.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.BuyerFields, got.BuyerFields)
	assert.Equal(t, b.OwnerID, got.OwnerID)
	assert.True(t, got.UpdatedAt.Equal(b.UpdatedAt), "updatedAt %v != %v", got.UpdatedAt, b.UpdatedAt)

	bare := Buyer(uuid.New(), "No Extras", time.Second)
	insert(t, s, bare)
	got, err = s.GetBuyer(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.BHK)
	assert.Nil(t, got.BudgetMin)
	assert.Nil(t, got.Notes)
	assert.Equal(t, []string{}, got.Tags)

	large := Buyer(uuid.New(), "Large Budget", 2*time.Second)
	large.BudgetMin = ptr(3_000_000_000)
	large.BudgetMax = ptr(9_000_000_000_000)
	insert(t, s, large)
	got, err = s.GetBuyer(ctx, large.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BudgetMin)
	require.NotNil(t, got.BudgetMax)
	assert.Equal(t, 3_000_000_000, *got.BudgetMin)
	assert.Equal(t, 9_000_000_000_000, *got.BudgetMax)
}

func testNotFound(t *testing.T, s core.Store) {
	_, err := s.GetBuyer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.WithTx(context.Background(), func(tx core.Tx) error {
		_, err := tx.GetBuyerForUpdate(context.Background(), uuid.New())
		return err
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testRollback(t *testing.T, s core.Store) {
	ctx := context.Background()
	b := Buyer(uuid.New(), "Rolled Back", 0)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx core.Tx) error {
		if err := tx.InsertBuyer(ctx, b); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetBuyer(ctx, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testGuardedUpdate(t *testing.T, s core.Store) {
	ctx := context.Background()
	b := Buyer(uuid.New(), "Guarded", 0)
	insert(t, s, b)

	next := b
	next.Status = "Contacted"
	next.UpdatedAt = b.UpdatedAt.Add(time.Second)

	err := s.WithTx(ctx, func(tx core.Tx) error {
		ok, err := tx.UpdateBuyer(ctx, next, b.UpdatedAt.Add(-time.Microsecond))
		require.NoError(t, err)
		assert.False(t, ok, "stale prior must not match")

		ok, err = tx.UpdateBuyer(ctx, next, b.UpdatedAt)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err := s.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contacted", got.Status)
	assert.True(t, got.UpdatedAt.Equal(next.UpdatedAt))
}

func testDeleteCascades(t *testing.T, s core.Store) {
	ctx := context.Background()
	actor := uuid.New()
	b := Buyer(actor, "Deleted", 0)
	insert(t, s, b)

	err := s.WithTx(ctx, func(tx core.Tx) error {
		return tx.InsertHistory(ctx, history(b.ID, actor, b.UpdatedAt, core.ChangeSet{"created": {New: "created"}}))
	})
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx core.Tx) error {
		ok, err := tx.DeleteBuyer(ctx, b.ID)
		assert.True(t, ok)
		return err
	})
	require.NoError(t, err)

	_, err = s.GetBuyer(ctx, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	entries, err := s.ListHistory(ctx, b.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = s.WithTx(ctx, func(tx core.Tx) error {
		ok, err := tx.DeleteBuyer(ctx, b.ID)
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)
}

func testHistoryOrder(t *testing.T, s core.Store) {
	ctx := context.Background()
	actor := uuid.New()
	b := Buyer(actor, "Historic", 0)
	insert(t, s, b)

	err := s.WithTx(ctx, func(tx core.Tx) error {
		for i := range 4 {
			diff := core.ChangeSet{"notes": {Old: nil, New: fmt.Sprintf("edit %d", i)}}
			if err := tx.InsertHistory(ctx, history(b.ID, actor, base.Add(time.Duration(i)*time.Minute), diff)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entries, err := s.ListHistory(ctx, b.ID, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "edit 3", entries[0].Diff["notes"].New)
	assert.Equal(t, "edit 1", entries[2].Diff["notes"].New)
	assert.Nil(t, entries[0].Diff["notes"].Old)
	assert.Equal(t, actor, entries[0].ChangedBy)
	assert.True(t, entries[0].ChangedAt.Equal(base.Add(3*time.Minute)))
}

func testListFilters(t *testing.T, s core.Store) {
	ctx := context.Background()
	owner := uuid.New()

	a := Buyer(owner, "Asha Verma", 0)
	a.City = "Mohali"
	a.Email = ptr("asha@Example.com")
	b := Buyer(owner, "Bikram Singh", time.Second)
	b.Status = "Qualified"
	b.Phone = "9000000001"
	c := Buyer(owner, "Chetan 100%", 2*time.Second)
	c.City = "Mohali"
	c.Timeline = ">6m"
	insert(t, s, a, b, c)

	tests := []struct {
		name string
		q    core.ListQuery
		want []string
	}{
		{"all", core.ListQuery{}, []string{"Chetan 100%", "Bikram Singh", "Asha Verma"}},
		{"city", core.ListQuery{City: "Mohali"}, []string{"Chetan 100%", "Asha Verma"}},
		{"city and timeline", core.ListQuery{City: "Mohali", Timeline: ">6m"}, []string{"Chetan 100%"}},
		{"status", core.ListQuery{Status: "Qualified"}, []string{"Bikram Singh"}},
		{"search name any case", core.ListQuery{Search: "asha"}, []string{"Asha Verma"}},
		{"search email", core.ListQuery{Search: "EXAMPLE.COM"}, []string{"Asha Verma"}},
		{"search phone", core.ListQuery{Search: "90000"}, []string{"Bikram Singh"}},
		{"literal percent", core.ListQuery{Search: "100%"}, []string{"Chetan 100%"}},
		{"no match", core.ListQuery{Search: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buyers, total, err := s.ListBuyers(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			assert.Equal(t, tt.want, names(buyers))
		})
	}
}

func testListPaging(t *testing.T, s core.Store) {
	ctx := context.Background()
	owner := uuid.New()
	var all []core.Buyer
	for i, n := range []string{"Eve", "Dan", "Cat", "Bob", "Amy"} {
		all = append(all, Buyer(owner, n+" Test", time.Duration(i)*time.Second))
	}
	insert(t, s, all...)

	buyers, total, err := s.ListBuyers(ctx, core.ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"Cat Test", "Dan Test"}, names(buyers))

	buyers, _, err = s.ListBuyers(ctx, core.ListQuery{
		Sort: &core.SortSpec{Field: core.SortFullName}, Page: 1, PageSize: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Amy Test", "Bob Test", "Cat Test"}, names(buyers))

	buyers, _, err = s.ListBuyers(ctx, core.ListQuery{
		Sort: &core.SortSpec{Field: core.SortUpdatedAt}, PageSize: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Eve Test", "Dan Test", "Cat Test", "Bob Test", "Amy Test"}, names(buyers))
}

func names(buyers []core.Buyer) []string {
	var out []string
	for _, b := range buyers {
		out = append(out, b.FullName)
	}
	return out
}
