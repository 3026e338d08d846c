package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/internal/cache"
	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/document/domain"
	"github.com/smallbiznis/spk/internal/lock"
	"github.com/smallbiznis/spk/internal/providers/artifact"
	wodomain "github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/smallbiznis/spk/internal/workorder/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type countingRenderer struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	err     error
}

func (r *countingRenderer) Render(ctx context.Context, w wodomain.WorkOrder) ([]byte, error) {
	if r.calls.Add(1) == 1 && r.entered != nil {
		close(r.entered)
	}
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(fmt.Sprintf("%%PDF %s r%d", w.Number, w.Revision)), nil
}

type fixture struct {
	db       *gorm.DB
	repo     wodomain.Repository
	store    *artifact.FileStore
	renderer *countingRenderer
	node     *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&wodomain.WorkOrder{}, &wodomain.Payment{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := artifact.NewFileStore(t.TempDir(), "https://spk.test/files")
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &fixture{
		db:       db,
		repo:     repository.Provide(),
		store:    store,
		renderer: &countingRenderer{},
		node:     node,
	}
}

func (f *fixture) service(locker *lock.Locker) domain.Service {
	return New(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		Repo:     f.repo,
		Renderer: f.renderer,
		Store:    f.store,
		Cache:    cache.NewDocumentCache(time.Minute, nil),
		Locker:   locker,
	})
}

func (f *fixture) seed(t *testing.T) wodomain.WorkOrder {
	t.Helper()
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	id := f.node.Generate()
	wo := wodomain.WorkOrder{
		ID:                 id,
		Number:             "SPK-2026-" + id.String(),
		VendorName:         "PT Maju Jaya",
		ProjectName:        "Renovasi Gudang",
		ContractValue:      decimal.NewFromInt(100000000),
		Currency:           "IDR",
		StartDate:          now,
		DpPercentage:       decimal.NewFromInt(30),
		DpAmount:           decimal.NewFromInt(30000000),
		ProgressPercentage: decimal.NewFromInt(40),
		ProgressAmount:     decimal.NewFromInt(40000000),
		FinalPercentage:    decimal.NewFromInt(30),
		FinalAmount:        decimal.NewFromInt(30000000),
		Status:             wodomain.StatusDraft,
		CreatedBy:          "admin@company.com",
		Revision:           1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, f.repo.InsertWorkOrder(context.Background(), f.db, &wo))
	return wo
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) wodomain.WorkOrder {
	t.Helper()
	got, err := f.repo.FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	return *got
}

func TestRetrieveRendersOncePerRevision(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	wo := f.seed(t)
	ctx := context.Background()

	doc, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRender, doc.Source)
	assert.Equal(t, domain.ContentTypePDF, doc.ContentType)
	assert.Equal(t, int64(1), doc.Revision)
	assert.Contains(t, doc.Locator, "https://spk.test/files/work-orders/")

	stored := f.reload(t, wo.ID)
	require.True(t, stored.HasCurrentDocument())
	assert.Equal(t, doc.Locator, *stored.DocumentURL)

	again, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCache, again.Source)
	assert.Equal(t, doc.Data, again.Data)
	assert.Equal(t, int32(1), f.renderer.calls.Load())
}

func TestRetrieveServesPersistedArtifact(t *testing.T) {
	f := newFixture(t)
	wo := f.seed(t)
	ctx := context.Background()

	first, err := f.service(nil).Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)

	// A fresh instance has an empty memo cache.
	doc, err := f.service(nil).Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceArtifact, doc.Source)
	assert.Equal(t, first.Data, doc.Data)
	assert.Equal(t, int32(1), f.renderer.calls.Load())
}

func TestRetrieveRerendersAfterRevisionBump(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	wo := f.seed(t)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	oldKey := *f.reload(t, wo.ID).DocumentKey

	require.NoError(t, f.repo.BumpRevision(ctx, f.db, wo.ID))

	doc, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRender, doc.Source)
	assert.Equal(t, int64(2), doc.Revision)
	assert.Equal(t, int32(2), f.renderer.calls.Load())

	stored := f.reload(t, wo.ID)
	assert.NotEqual(t, oldKey, *stored.DocumentKey)
	_, err = f.store.Get(ctx, oldKey)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestRetrieveDistinguishesMissingFromRenderFailure(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, "12345")
	assert.ErrorIs(t, err, wodomain.ErrNotFound)

	_, err = svc.Retrieve(ctx, "not-an-id")
	assert.ErrorIs(t, err, wodomain.ErrInvalidID)

	wo := f.seed(t)
	f.renderer.err = errors.New("font missing")
	_, err = svc.Retrieve(ctx, wo.ID.String())

	var renderErr *domain.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, wo.ID, renderErr.WorkOrderID)
	assert.False(t, errors.Is(err, wodomain.ErrNotFound))
	assert.Nil(t, f.reload(t, wo.ID).DocumentKey)
}

func TestConcurrentRetrievalSharesOneRender(t *testing.T) {
	f := newFixture(t)
	f.renderer.entered = make(chan struct{})
	f.renderer.release = make(chan struct{})
	svc := f.service(nil)
	wo := f.seed(t)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.Document, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Retrieve(context.Background(), wo.ID.String())
		}(i)
	}

	<-f.renderer.entered
	time.Sleep(100 * time.Millisecond)
	close(f.renderer.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Data, results[i].Data)
	}
	assert.Equal(t, int32(1), f.renderer.calls.Load())
}

func TestInvalidateForcesFreshRender(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil)
	wo := f.seed(t)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	key := *f.reload(t, wo.ID).DocumentKey

	require.NoError(t, svc.Invalidate(ctx, wo.ID.String()))
	stored := f.reload(t, wo.ID)
	assert.Nil(t, stored.DocumentKey)
	_, err = f.store.Get(ctx, key)
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	doc, err := svc.Retrieve(ctx, wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRender, doc.Source)
	assert.Equal(t, int32(2), f.renderer.calls.Load())

	assert.ErrorIs(t, svc.Invalidate(ctx, "999"), wodomain.ErrNotFound)
}

func TestRetrieveReleasesDistributedLock(t *testing.T) {
	f := newFixture(t)
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := f.service(lock.New(client, "spk:lock:"))
	wo := f.seed(t)

	doc, err := svc.Retrieve(context.Background(), wo.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRender, doc.Source)
	assert.False(t, srv.Exists("spk:lock:document:"+wo.ID.String()))
}

func TestFileName(t *testing.T) {
	wo := wodomain.WorkOrder{ID: 7, Number: "SPK-2026-0042", ProjectName: "Renovasi Gudang Utama"}
	assert.Equal(t, "spk-2026-0042-renovasi-gudang-utama.pdf", FileName(wo))
	assert.Equal(t, "spk-7.pdf", FileName(wodomain.WorkOrder{ID: 7}))
}

func TestNewDocumentCacheUsesConfig(t *testing.T) {
	c := NewDocumentCache(config.Config{Document: config.DocumentConfig{CacheTTL: time.Second}}, realClock{})
	c.Set(1, 1, []byte("x"))
	_, ok := c.Get(1, 1)
	assert.True(t, ok)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
