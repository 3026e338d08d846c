package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() domain.WorkOrder {
	notes := "Termasuk material dan tenaga kerja."
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	return domain.WorkOrder{
		ID:                 1001,
		Number:             "SPK-2026-0042",
		VendorName:         "PT Maju Jaya",
		ProjectName:        "Renovasi Gudang",
		ContractValue:      decimal.RequireFromString("100000000"),
		Currency:           "IDR",
		StartDate:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:            &end,
		DpPercentage:       decimal.NewFromInt(30),
		DpAmount:           decimal.RequireFromString("30000000"),
		ProgressPercentage: decimal.NewFromInt(40),
		ProgressAmount:     decimal.RequireFromString("40000000"),
		FinalPercentage:    decimal.NewFromInt(30),
		FinalAmount:        decimal.RequireFromString("30000000"),
		Status:             domain.StatusPublished,
		Notes:              &notes,
		CreatedBy:          "admin@company.com",
		CreatedAt:          time.Date(2026, 1, 10, 8, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := New().Render(context.Background(), snapshot())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderIsDeterministic(t *testing.T) {
	r := New()
	first, err := r.Render(context.Background(), snapshot())
	require.NoError(t, err)
	second, err := r.Render(context.Background(), snapshot())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))

	changed := snapshot()
	changed.VendorName = "CV Sumber Rejeki"
	third, err := r.Render(context.Background(), changed)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(first, third))
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Render(ctx, snapshot())
	assert.ErrorIs(t, err, context.Canceled)
}
