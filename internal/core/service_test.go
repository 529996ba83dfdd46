package core_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/store/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const janeCSV = "fullName,phone,city,propertyType,purpose,timeline,source\n" +
	"Jane Roe,9998887777,Mohali,Plot,Buy,0-3m,Website\n"

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newService(t *testing.T, limiter core.Limiter) *core.Service {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return core.NewService(store, limiter, core.ServiceConfig{})
}

func newBuyer() core.BuyerFields {
	return core.BuyerFields{
		FullName:     "Jane Roe",
		Phone:        "9998887777",
		City:         "Mohali",
		PropertyType: "Plot",
		Purpose:      "Buy",
		Timeline:     "0-3m",
		Source:       "Website",
	}
}

func TestImportCSV_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	res, err := svc.ImportCSV(ctx, actor, []byte(janeCSV))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.ValidCount)
	assert.Empty(t, res.Errors)

	page, err := svc.ListBuyers(ctx, core.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Buyers, 1)
	b := page.Buyers[0]
	assert.Equal(t, "Jane Roe", b.FullName)
	assert.Equal(t, actor, b.OwnerID)
	assert.Nil(t, b.BHK)
	assert.Equal(t, "New", b.Status)

	hist, err := svc.BuyerHistory(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].IsCreation())
	assert.Equal(t, core.CreatedByImport, hist[0].Diff[core.HistoryCreatedKey].New)
	assert.Equal(t, actor, hist[0].ChangedBy)
}

func TestImportCSV_InvalidRowCommitsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	var b strings.Builder
	b.WriteString("fullName,phone,city,propertyType,purpose,timeline,source\n")
	for i := range 10 {
		phone := "9998887777"
		if i == 5 {
			phone = "12"
		}
		fmt.Fprintf(&b, "Buyer %d,%s,Mohali,Plot,Buy,0-3m,Website\n", i, phone)
	}

	res, err := svc.ImportCSV(ctx, uuid.New(), []byte(b.String()))
	require.ErrorIs(t, err, core.ErrBatchInvalid)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 9, res.ValidCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 7, res.Errors[0].Row)

	page, err := svc.ListBuyers(ctx, core.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestImportCSV_RejectedBeforeValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	var b strings.Builder
	b.WriteString("fullName,phone\n")
	for range 201 {
		b.WriteString("x,y\n")
	}

	res, err := svc.ImportCSV(ctx, uuid.New(), []byte(b.String()))
	require.ErrorIs(t, err, core.ErrBatchTooLarge)
	assert.Empty(t, res.Errors, "no row should have been validated")

	_, err = svc.ImportCSV(ctx, uuid.New(), []byte("fullName,phone\n"))
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = svc.ImportCSV(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestCreateBuyer(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	b, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)
	assert.Equal(t, "New", b.Status)
	assert.Equal(t, time.UTC, b.UpdatedAt.Location())

	got, err := svc.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.BuyerFields, got.BuyerFields)
	assert.True(t, got.UpdatedAt.Equal(b.UpdatedAt))

	hist, err := svc.BuyerHistory(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, core.CreatedByForm, hist[0].Diff[core.HistoryCreatedKey].New)

	bad := newBuyer()
	bad.PropertyType = "Villa"
	_, err = svc.CreateBuyer(ctx, actor, bad)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpdateBuyer_StatusOnly(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)

	in := created.BuyerFields
	in.Status = "Contacted"
	res, err := svc.UpdateBuyer(ctx, created.ID, actor, created.UpdatedAt, in)
	require.NoError(t, err)

	assert.Equal(t, core.ChangeSet{"status": {Old: "New", New: "Contacted"}}, res.Changes)
	assert.True(t, res.Buyer.UpdatedAt.After(created.UpdatedAt))

	hist, err := svc.BuyerHistory(ctx, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, core.ChangeSet{"status": {Old: "New", New: "Contacted"}}, hist[0].Diff)
	assert.True(t, hist[1].IsCreation())
}

func TestPatchBuyer_MergesOverStoredCopy(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	in := newBuyer()
	in.Email = ptr("old@example.com")
	in.Tags = []string{"hot"}
	created, err := svc.CreateBuyer(ctx, actor, in)
	require.NoError(t, err)

	res, err := svc.PatchBuyer(ctx, created.ID, actor, created.UpdatedAt, func(cur core.BuyerFields) (core.BuyerFields, error) {
		require.NotNil(t, cur.Email)
		*cur.Email = "new@example.com"
		cur.Tags[0] = "cold"
		return cur, nil
	})
	require.NoError(t, err)

	assert.Equal(t, core.FieldChange{Old: "old@example.com", New: "new@example.com"}, res.Changes["email"])
	assert.Contains(t, res.Changes, "tags")
	assert.Equal(t, "new@example.com", *res.Buyer.Email)
}

func TestPatchBuyer_MergeErrorLeavesBuyerUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)

	bad := core.ValidationErrors{{Field: "body", Message: "must be valid JSON"}}
	_, err = svc.PatchBuyer(ctx, created.ID, actor, created.UpdatedAt, func(core.BuyerFields) (core.BuyerFields, error) {
		return core.BuyerFields{}, bad
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	after, err := svc.GetBuyer(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdateBuyer_NoOpWritesNoHistory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)

	res, err := svc.UpdateBuyer(ctx, created.ID, actor, created.UpdatedAt, created.BuyerFields)
	require.NoError(t, err)
	assert.Empty(t, res.Changes)

	hist, err := svc.BuyerHistory(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	// The token still moves, so the old one is now stale.
	_, err = svc.UpdateBuyer(ctx, created.ID, actor, created.UpdatedAt, created.BuyerFields)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestUpdateBuyer_ConflictLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)
	before, err := svc.GetBuyer(ctx, created.ID)
	require.NoError(t, err)

	in := created.BuyerFields
	in.FullName = "Someone Else"
	_, err = svc.UpdateBuyer(ctx, created.ID, actor, created.UpdatedAt.Add(-time.Second), in)
	require.ErrorIs(t, err, core.ErrConflict)

	after, err := svc.GetBuyer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.BuyerFields, after.BuyerFields)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestUpdateBuyer_InvalidLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)

	in := created.BuyerFields
	in.BudgetMin = ptr(900)
	in.BudgetMax = ptr(100)
	_, err = svc.UpdateBuyer(ctx, created.ID, actor, created.UpdatedAt, in)
	require.ErrorIs(t, err, core.ErrValidation)

	after, err := svc.GetBuyer(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, after.BudgetMin)
	assert.True(t, created.UpdatedAt.Equal(after.UpdatedAt))
}

func TestOwnership_ForeignBuyerLooksMissing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	owner, intruder := uuid.New(), uuid.New()

	created, err := svc.CreateBuyer(ctx, owner, newBuyer())
	require.NoError(t, err)

	_, err = svc.UpdateBuyer(ctx, created.ID, intruder, created.UpdatedAt, created.BuyerFields)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "BUY001", core.MapError(err).Code)

	err = svc.DeleteBuyer(ctx, created.ID, intruder)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetBuyer(ctx, created.ID)
	assert.NoError(t, err, "reads are open to every user")

	_, err = svc.UpdateBuyer(ctx, uuid.New(), owner, created.UpdatedAt, created.BuyerFields)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPatchBuyer_RateLimitedBeforeMerge(t *testing.T) {
	svc := newService(t, denyAll{})

	called := false
	_, err := svc.PatchBuyer(context.Background(), uuid.New(), uuid.New(), time.Now(), func(cur core.BuyerFields) (core.BuyerFields, error) {
		called = true
		return cur, nil
	})

	assert.ErrorIs(t, err, core.ErrRateLimited)
	assert.False(t, called, "merge must not see stored state once the actor is throttled")
}

func TestRateLimit_CheckedBeforeAnyRead(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, denyAll{})
	actor := uuid.New()

	_, err := svc.CreateBuyer(ctx, actor, newBuyer())
	assert.ErrorIs(t, err, core.ErrRateLimited)

	_, err = svc.UpdateBuyer(ctx, uuid.New(), actor, time.Now(), newBuyer())
	assert.ErrorIs(t, err, core.ErrRateLimited, "a missing buyer must not be reported before the gate")

	err = svc.DeleteBuyer(ctx, uuid.New(), actor)
	assert.ErrorIs(t, err, core.ErrRateLimited)

	_, err = svc.ImportCSV(ctx, actor, []byte(janeCSV))
	assert.ErrorIs(t, err, core.ErrRateLimited)

	page, err := svc.ListBuyers(ctx, core.ListQuery{})
	require.NoError(t, err, "reads are not gated")
	assert.Zero(t, page.Total)
}

func TestDeleteBuyer_CascadesHistory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	actor := uuid.New()

	created, err := svc.CreateBuyer(ctx, actor, newBuyer())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBuyer(ctx, created.ID, actor))

	_, err = svc.GetBuyer(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.BuyerHistory(ctx, created.ID, 0)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteBuyer(ctx, created.ID, actor), core.ErrNotFound)
}

func TestListBuyers_QueryValidationAndPaging(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	_, err := svc.ListBuyers(ctx, core.ListQuery{City: "Delhi", Sort: &core.SortSpec{Field: "phone"}})
	require.ErrorIs(t, err, core.ErrValidation)
	var verrs core.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "city", verrs[0].Field)
	assert.Equal(t, "sort", verrs[1].Field)

	var b strings.Builder
	b.WriteString("fullName,phone,city,propertyType,purpose,timeline,source\n")
	for i := range 12 {
		fmt.Fprintf(&b, "Buyer %02d,9998887777,Mohali,Plot,Buy,0-3m,Website\n", i)
	}
	_, err = svc.ImportCSV(ctx, uuid.New(), []byte(b.String()))
	require.NoError(t, err)

	page, err := svc.ListBuyers(ctx, core.ListQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Buyers, 2)
	assert.Equal(t, "Buyer 01", page.Buyers[0].FullName)
	assert.Equal(t, "Buyer 00", page.Buyers[1].FullName)

	page, err = svc.ListBuyers(ctx, core.ListQuery{PageSize: 1000, Search: " buyer 1 "})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, int64(2), page.Total)
}

const exportFixture = "fullName,phone,city,propertyType,purpose,timeline,source,notes,tags,budgetMin\n" +
	`Jane Roe,9998887777,Mohali,Plot,Buy,0-3m,Website,"said ""hi""",hot;nri,5000000` + "\n" +
	"Ravi Kumar,9000000001,Chandigarh,Office,Rent,>6m,Referral,,,\n"

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	_, err := svc.ImportCSV(ctx, uuid.New(), []byte(exportFixture))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := svc.ExportCSV(ctx, core.ListQuery{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,notes,tags,status\n" +
		`"Jane Roe","","9998887777","Mohali","Plot","","Buy","5000000","","0-3m","Website","said ""hi""","hot;nri","New"` + "\n" +
		`"Ravi Kumar","","9000000001","Chandigarh","Office","","Rent","","",">6m","Referral","","","New"` + "\n"
	assert.Equal(t, want, out.String())

	// An export imports back unchanged.
	again := newService(t, nil)
	res, err := again.ImportCSV(ctx, uuid.New(), out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	var second bytes.Buffer
	_, err = again.ExportCSV(ctx, core.ListQuery{}, &second)
	require.NoError(t, err)
	assert.Equal(t, out.String(), second.String())
}

func TestExportCSV_APITagsSurviveReimport(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)

	in := newBuyer()
	in.Tags = []string{"vip;nri", "east, west"}
	created, err := svc.CreateBuyer(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "nri", "east", "west"}, created.Tags)

	var out bytes.Buffer
	_, err = svc.ExportCSV(ctx, core.ListQuery{}, &out)
	require.NoError(t, err)

	again := newService(t, nil)
	_, err = again.ImportCSV(ctx, uuid.New(), out.Bytes())
	require.NoError(t, err)

	page, err := again.ListBuyers(ctx, core.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Buyers, 1)
	assert.Equal(t, created.Tags, page.Buyers[0].Tags)
}

func TestExportCSV_FiltersApply(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	_, err := svc.ImportCSV(ctx, uuid.New(), []byte(exportFixture))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := svc.ExportCSV(ctx, core.ListQuery{City: "Chandigarh"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotContains(t, out.String(), "Jane Roe")

	_, err = svc.ExportCSV(ctx, core.ListQuery{Status: "Unknown"}, &out)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	_, err := svc.ImportCSV(ctx, uuid.New(), []byte(exportFixture))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := svc.ExportXLSX(ctx, core.ListQuery{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Buyers")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.CSVColumns, rows[0])
	assert.Equal(t, "Jane Roe", rows[1][0])
	assert.Equal(t, "5000000", rows[1][7])
	assert.Equal(t, `said "hi"`, rows[1][11])
	assert.Equal(t, "Ravi Kumar", rows[2][0])
}

func ptr[T any](v T) *T { return &v }
