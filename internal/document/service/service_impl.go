package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	"github.com/smallbiznis/spk/internal/cache"
	"github.com/smallbiznis/spk/internal/clock"
	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/document/domain"
	"github.com/smallbiznis/spk/internal/lock"
	"github.com/smallbiznis/spk/internal/observability/logger"
	"github.com/smallbiznis/spk/internal/observability/metrics"
	"github.com/smallbiznis/spk/internal/providers/artifact"
	"github.com/smallbiznis/spk/internal/providers/pdf"
	wodomain "github.com/smallbiznis/spk/internal/workorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	defaultRenderTimeout = 30 * time.Second
	defaultLockTTL       = time.Minute
	defaultLockWait      = 15 * time.Second
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Cfg           config.Config
	Repo          wodomain.Repository
	Renderer      pdf.Renderer
	Store         artifact.Store
	Cache         cache.DocumentCache
	Locker        *lock.Locker           `optional:"true"`
	AuditSvc      auditdomain.Service    `optional:"true"`
	Metrics       *metrics.Metrics       `optional:"true"`
	RenderMetrics *metrics.RenderMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	repo          wodomain.Repository
	renderer      pdf.Renderer
	store         artifact.Store
	cache         cache.DocumentCache
	locker        *lock.Locker
	auditSvc      auditdomain.Service
	metrics       *metrics.Metrics
	renderMetrics *metrics.RenderMetrics

	group         singleflight.Group
	renderTimeout time.Duration
	lockTTL       time.Duration
	lockWait      time.Duration
}

func New(p Params) domain.Service {
	dc := p.Cfg.Document
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("document.service"),
		repo:          p.Repo,
		renderer:      p.Renderer,
		store:         p.Store,
		cache:         p.Cache,
		locker:        p.Locker,
		auditSvc:      p.AuditSvc,
		metrics:       p.Metrics,
		renderMetrics: p.RenderMetrics,
		renderTimeout: orDefault(dc.RenderTimeout, defaultRenderTimeout),
		lockTTL:       orDefault(dc.LockTTL, defaultLockTTL),
		lockWait:      orDefault(dc.LockWait, defaultLockWait),
	}
}

// NewDocumentCache sizes the memo cache from config.
func NewDocumentCache(cfg config.Config, clk clock.Clock) cache.DocumentCache {
	return cache.NewDocumentCache(cfg.Document.CacheTTL, clk.Now)
}

func (s *Service) Retrieve(ctx context.Context, id string) (domain.Document, error) {
	workOrderID, err := parseID(id)
	if err != nil {
		return domain.Document{}, err
	}
	workOrder, err := s.load(ctx, workOrderID)
	if err != nil {
		return domain.Document{}, err
	}

	if data, ok := s.cache.Get(workOrder.ID, workOrder.Revision); ok {
		return s.document(ctx, workOrder, data, domain.SourceCache), nil
	}
	if data, ok := s.fromArtifact(ctx, workOrder); ok {
		return s.document(ctx, workOrder, data, domain.SourceArtifact), nil
	}

	// One render per work order revision in this process; callers for the
	// same revision share the result.
	key := fmt.Sprintf("%d:%d", workOrder.ID, workOrder.Revision)
	ch := s.group.DoChan(key, func() (any, error) {
		if data, ok := s.cache.Get(workOrder.ID, workOrder.Revision); ok {
			return s.document(ctx, workOrder, data, domain.SourceCache), nil
		}
		renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.renderTimeout)
		defer cancel()
		return s.renderOnce(renderCtx, workOrder)
	})

	select {
	case <-ctx.Done():
		return domain.Document{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Document{}, res.Err
		}
		return res.Val.(domain.Document), nil
	}
}

func (s *Service) Invalidate(ctx context.Context, id string) error {
	workOrderID, err := parseID(id)
	if err != nil {
		return err
	}
	workOrder, err := s.load(ctx, workOrderID)
	if err != nil {
		return err
	}

	if err := s.repo.SetDocument(ctx, s.db.WithContext(ctx), workOrder.ID, nil, nil, 0); err != nil {
		logger.WithContext(ctx, s.log).Error("failed to clear document reference", zap.String("work_order_id", id), zap.Error(err))
		return wodomain.Persistence("invalidate_document", err)
	}
	s.cache.Invalidate(workOrder.ID)
	if key := deref(workOrder.DocumentKey); key != "" {
		s.dropArtifact(ctx, key)
	}

	s.audit(ctx, auditdomain.ActionDocumentInvalidated, workOrder, nil)
	return nil
}

// renderOnce runs under the per-process single flight. With Redis configured
// it also serializes renders across instances, then re-checks storage in case
// another instance finished first.
func (s *Service) renderOnce(ctx context.Context, workOrder wodomain.WorkOrder) (domain.Document, error) {
	log := logger.WithContext(ctx, s.log).With(
		zap.String("work_order_id", workOrder.ID.String()),
		zap.Int64("revision", workOrder.Revision),
	)

	if s.locker.Enabled() {
		lockKey := "document:" + workOrder.ID.String()
		token, ok, err := s.locker.Acquire(ctx, lockKey, s.lockTTL, s.lockWait, 0)
		switch {
		case err != nil:
			log.Warn("render lock unavailable, rendering without it", zap.Error(err))
		case !ok:
			log.Warn("render lock wait elapsed, rendering without it")
		default:
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
					log.Warn("failed to release render lock", zap.Error(err))
				}
			}()
		}

		current, err := s.load(ctx, workOrder.ID)
		if err != nil {
			return domain.Document{}, err
		}
		if current.Revision == workOrder.Revision {
			if data, ok := s.fromArtifact(ctx, current); ok {
				s.cache.Set(current.ID, current.Revision, data)
				return s.document(ctx, current, data, domain.SourceArtifact), nil
			}
		}
	}

	done := s.renderMetrics.Track()
	data, err := s.renderer.Render(ctx, workOrder)
	done(err)
	if err != nil {
		log.Error("failed to render document", zap.Error(err))
		return domain.Document{}, &domain.RenderError{WorkOrderID: workOrder.ID, Err: err}
	}

	s.cache.Set(workOrder.ID, workOrder.Revision, data)
	locator := s.persist(ctx, log, workOrder, data)

	doc := s.document(ctx, workOrder, data, domain.SourceRender)
	if locator != "" {
		doc.Locator = locator
	}
	s.audit(ctx, auditdomain.ActionDocumentRendered, workOrder, map[string]any{
		"revision": workOrder.Revision,
		"bytes":    len(data),
	})
	return doc, nil
}

// persist stores the artifact and records it on the work order. Failures are
// logged; the rendered bytes are still served.
func (s *Service) persist(ctx context.Context, log *zap.Logger, workOrder wodomain.WorkOrder, data []byte) string {
	key := artifactKey(workOrder)
	locator, err := s.store.Put(ctx, key, data, domain.ContentTypePDF)
	if err != nil {
		log.Warn("failed to store document artifact", zap.String("key", key), zap.Error(err))
		return ""
	}
	if err := s.repo.SetDocument(ctx, s.db.WithContext(ctx), workOrder.ID, &key, &locator, workOrder.Revision); err != nil {
		log.Warn("failed to record document artifact", zap.String("key", key), zap.Error(err))
		return locator
	}
	if previous := deref(workOrder.DocumentKey); previous != "" && previous != key {
		s.dropArtifact(ctx, previous)
	}
	return locator
}

func (s *Service) fromArtifact(ctx context.Context, workOrder wodomain.WorkOrder) ([]byte, bool) {
	if !workOrder.HasCurrentDocument() {
		return nil, false
	}
	data, err := s.store.Get(ctx, *workOrder.DocumentKey)
	if err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			logger.WithContext(ctx, s.log).Warn("failed to read document artifact",
				zap.String("work_order_id", workOrder.ID.String()),
				zap.String("key", *workOrder.DocumentKey),
				zap.Error(err),
			)
		}
		return nil, false
	}
	s.cache.Set(workOrder.ID, workOrder.Revision, data)
	return data, true
}

func (s *Service) dropArtifact(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logger.WithContext(ctx, s.log).Warn("failed to delete document artifact", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) load(ctx context.Context, id snowflake.ID) (wodomain.WorkOrder, error) {
	item, err := s.repo.FindByID(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to load work order", zap.String("work_order_id", id.String()), zap.Error(err))
		return wodomain.WorkOrder{}, wodomain.Persistence("load_work_order", err)
	}
	if item == nil {
		return wodomain.WorkOrder{}, wodomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) document(ctx context.Context, workOrder wodomain.WorkOrder, data []byte, source domain.Source) domain.Document {
	s.metrics.RecordDocumentRetrieval(ctx, string(source))
	return domain.Document{
		WorkOrderID: workOrder.ID,
		Revision:    workOrder.Revision,
		FileName:    FileName(workOrder),
		ContentType: domain.ContentTypePDF,
		Locator:     deref(workOrder.DocumentURL),
		Source:      source,
		Data:        data,
	}
}

func (s *Service) audit(ctx context.Context, action string, workOrder wodomain.WorkOrder, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["spk_number"] = workOrder.Number
	_ = s.auditSvc.Record(ctx, action, auditdomain.TargetWorkOrder, workOrder.ID.String(), metadata)
}

// FileName is the download name, e.g. "spk-2026-0042-renovasi-gudang.pdf".
func FileName(workOrder wodomain.WorkOrder) string {
	name := slug.Make(workOrder.Number + " " + workOrder.ProjectName)
	if name == "" {
		name = "spk-" + workOrder.ID.String()
	}
	return name + ".pdf"
}

func artifactKey(workOrder wodomain.WorkOrder) string {
	return fmt.Sprintf("work-orders/%s/spk-r%d.pdf", workOrder.ID, workOrder.Revision)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, wodomain.ErrInvalidID
	}
	return id, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func orDefault(value, def time.Duration) time.Duration {
	if value <= 0 {
		return def
	}
	return value
}
