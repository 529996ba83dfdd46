package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const previewHeader = "fullName,phone,city,propertyType,purpose,timeline,source\n"

func TestPreviewImport_WritesNothing(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	data := previewHeader +
		"Jane Roe,9998887777,Mohali,Plot,Buy,0-3m,Website\n" +
		"Ravi Kumar,9000000001,Chandigarh,Office,Rent,>6m,Referral\n" +
		"Jane Again,9998887777,Mohali,Plot,Buy,0-3m,Website\n"

	preview, err := svc.PreviewImport(ctx, []byte(data))

	require.NoError(t, err)
	assert.Equal(t, core.PreviewSummary{TotalRows: 3, ValidRows: 3, DuplicateInFile: 1}, preview.Summary)
	assert.True(t, preview.CanCommit())
	require.Len(t, preview.Sample, 3)
	assert.Equal(t, 2, preview.Sample[0].LineNumber)
	assert.Equal(t, "Jane Roe", preview.Sample[0].Values["fullName"])
	assert.Equal(t, "New", preview.Sample[0].Values["status"])
	assert.NotContains(t, preview.Sample[0].Values, "email")

	page, err := svc.ListBuyers(ctx, core.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestPreviewImport_ReportsRowErrors(t *testing.T) {
	svc := newService(t, nil)
	data := previewHeader +
		"Jane Roe,9998887777,Mohali,Plot,Buy,0-3m,Website\n" +
		"X,12,Atlantis,Plot,Buy,0-3m,Website\n"

	preview, err := svc.PreviewImport(context.Background(), []byte(data))

	require.NoError(t, err)
	assert.False(t, preview.CanCommit())
	assert.Equal(t, 1, preview.Summary.ValidRows)
	assert.Equal(t, 1, preview.Summary.ErrorRows)
	require.Len(t, preview.Errors, 1)
	assert.Equal(t, 3, preview.Errors[0].Row)
	require.Len(t, preview.Sample, 1)
}

func TestPreviewImport_ParseFailures(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.PreviewImport(context.Background(), []byte(previewHeader))
	assert.True(t, errors.Is(err, core.ErrEmptyInput), "got %v", err)

	_, err = svc.PreviewImport(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrParse), "got %v", err)
}

func TestPreviewImport_SampleIsCapped(t *testing.T) {
	svc := newService(t, nil)
	data := previewHeader
	for i := 0; i < 8; i++ {
		data += "Jane Roe,999888777" + string(rune('0'+i)) + ",Mohali,Plot,Buy,0-3m,Website\n"
	}

	preview, err := svc.PreviewImport(context.Background(), []byte(data))

	require.NoError(t, err)
	assert.Equal(t, 8, preview.Summary.ValidRows)
	assert.Zero(t, preview.Summary.DuplicateInFile)
	assert.Len(t, preview.Sample, 5)
}
