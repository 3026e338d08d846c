package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	"github.com/smallbiznis/spk/internal/audit/repository"
	"github.com/smallbiznis/spk/internal/clock"
	"github.com/smallbiznis/spk/internal/config"
	obscontext "github.com/smallbiznis/spk/internal/observability/context"
	"github.com/smallbiznis/spk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))
	return db
}

func newTestService(t *testing.T, clk clock.Clock) auditdomain.Service {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{
		DB:    setupTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Cfg:   config.Config{DefaultActor: "admin@company.com"},
		Repo:  repository.Provide(),
	})
}

func TestRecordUsesContextActorAndMasksContacts(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	ctx := obscontext.WithActor(context.Background(), "finance@company.com")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	require.NoError(t, svc.Record(ctx, auditdomain.ActionWorkOrderCreated, auditdomain.TargetWorkOrder, "42", map[string]any{
		"vendor_email": "ops@acme.test",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{TargetID: "42"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "finance@company.com", entry.Actor)
	assert.Equal(t, "o****@acme.test", entry.Metadata["vendor_email"])
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-1", *entry.RequestID)
}

func TestRecordFallsBackToDefaultActor(t *testing.T) {
	svc := newTestService(t, clock.New())
	require.NoError(t, svc.Record(context.Background(), auditdomain.ActionWorkOrderDeleted, auditdomain.TargetWorkOrder, "7", nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: auditdomain.ActionWorkOrderDeleted})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "admin@company.com", resp.AuditLogs[0].Actor)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc := newTestService(t, clock.New())
	assert.ErrorIs(t, svc.Record(context.Background(), " ", "", "", nil), auditdomain.ErrInvalidAction)
}

func TestListPaginates(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		fake.Advance(time.Minute)
		require.NoError(t, svc.Record(ctx, auditdomain.ActionPaymentUpdated, auditdomain.TargetPayment, "p1", nil))
	}

	req := auditdomain.ListAuditLogRequest{TargetID: "p1"}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "garbage"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
