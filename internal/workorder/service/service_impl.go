package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	"github.com/smallbiznis/spk/internal/clock"
	"github.com/smallbiznis/spk/internal/config"
	obscontext "github.com/smallbiznis/spk/internal/observability/context"
	"github.com/smallbiznis/spk/internal/observability/logger"
	"github.com/smallbiznis/spk/internal/observability/metrics"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/smallbiznis/spk/internal/workorder/format"
	"github.com/smallbiznis/spk/internal/workorder/split"
	"github.com/smallbiznis/spk/internal/workorder/validation"
	spkdb "github.com/smallbiznis/spk/pkg/db"
	"github.com/smallbiznis/spk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds SPK number regeneration after a unique index hit.
const maxNumberAttempts = 5

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Repo      domain.Repository
	Validator *validation.Validator
	AuditSvc  auditdomain.Service
	Publisher domain.EventPublisher
	Artifacts domain.ArtifactRemover `optional:"true"`
	Metrics   *metrics.Metrics       `optional:"true"`
	NumberGen format.NumberGenerator `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            domain.Repository
	validator       *validation.Validator
	auditSvc        auditdomain.Service
	publisher       domain.EventPublisher
	artifacts       domain.ArtifactRemover
	metrics         *metrics.Metrics
	numberGen       format.NumberGenerator
	links           format.Links
	defaultActor    string
	defaultCurrency string
}

func New(p Params) domain.Service {
	numberGen := p.NumberGen
	if numberGen == nil {
		numberGen = format.RandomNumber
	}
	currency := strings.ToUpper(strings.TrimSpace(p.Cfg.DefaultCurrency))
	if currency == "" {
		currency = "IDR"
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("workorder.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		validator:       p.Validator,
		auditSvc:        p.AuditSvc,
		publisher:       p.Publisher,
		artifacts:       p.Artifacts,
		metrics:         p.Metrics,
		numberGen:       numberGen,
		links:           format.NewLinks(p.Cfg.AppURL),
		defaultActor:    p.Cfg.DefaultActor,
		defaultCurrency: currency,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateWorkOrderRequest) (domain.WorkOrder, error) {
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = s.defaultCurrency
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		return domain.WorkOrder{}, err
	}

	startDate, _ := validation.ParseDate(req.StartDate)
	var endDate *time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		parsed, _ := validation.ParseDate(req.EndDate)
		endDate = &parsed
	}

	currency := req.Currency
	contractValue := req.ContractValue.Round(split.MinorUnits(currency))
	amounts := split.Calculate(contractValue, req.DpPercentage, req.ProgressPercentage, req.FinalPercentage, currency)

	actor := s.actor(ctx)
	now := s.now()
	workOrder := domain.WorkOrder{
		ID:                 s.genID.Generate(),
		VendorName:         strings.TrimSpace(req.VendorName),
		VendorEmail:        optional(req.VendorEmail),
		VendorPhone:        optional(req.VendorPhone),
		ProjectName:        strings.TrimSpace(req.ProjectName),
		ProjectDescription: optional(req.ProjectDescription),
		ContractValue:      contractValue,
		Currency:           currency,
		StartDate:          startDate,
		EndDate:            endDate,
		DpPercentage:       req.DpPercentage,
		DpAmount:           amounts.DP,
		ProgressPercentage: req.ProgressPercentage,
		ProgressAmount:     amounts.Progress,
		FinalPercentage:    req.FinalPercentage,
		FinalAmount:        amounts.Final,
		Status:             domain.StatusDraft,
		Notes:              optional(req.Notes),
		CreatedBy:          actor,
		Revision:           1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	payments := make([]domain.Payment, 0, len(domain.Terms))
	for _, term := range domain.Terms {
		payment := domain.Payment{
			ID:          s.genID.Generate(),
			WorkOrderID: workOrder.ID,
			Term:        term,
			Status:      domain.PaymentStatusPending,
			UpdatedBy:   actor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		switch term {
		case domain.TermDP:
			payment.Amount, payment.Percentage = amounts.DP, req.DpPercentage
		case domain.TermProgress:
			payment.Amount, payment.Percentage = amounts.Progress, req.ProgressPercentage
		case domain.TermFinal:
			payment.Amount, payment.Percentage = amounts.Final, req.FinalPercentage
		}
		payments = append(payments, payment)
	}

	if err := s.insertWithNumber(ctx, &workOrder, payments, now); err != nil {
		return domain.WorkOrder{}, err
	}
	workOrder.Payments = payments

	s.audit(ctx, auditdomain.ActionWorkOrderCreated, auditdomain.TargetWorkOrder, workOrder.ID.String(), map[string]any{
		"spk_number":     workOrder.Number,
		"vendor_name":    workOrder.VendorName,
		"vendor_email":   deref(workOrder.VendorEmail),
		"contract_value": workOrder.ContractValue.String(),
		"currency":       workOrder.Currency,
	})
	s.metrics.RecordWorkOrderCreated(ctx, workOrder.Currency)

	return workOrder, nil
}

// insertWithNumber writes the work order and its payments in one transaction,
// drawing a fresh SPK number whenever the previous one is already taken.
func (s *Service) insertWithNumber(ctx context.Context, workOrder *domain.WorkOrder, payments []domain.Payment, now time.Time) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		workOrder.Number = s.numberGen(now)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.InsertWorkOrder(ctx, tx, workOrder); err != nil {
				return err
			}
			return s.repo.InsertPayments(ctx, tx, payments)
		})
		if err == nil {
			return nil
		}
		if !spkdb.IsDuplicateKeyErr(err) {
			logger.WithContext(ctx, s.log).Error("failed to create work order", zap.Error(err))
			return domain.Persistence("create_work_order", err)
		}
		logger.WithContext(ctx, s.log).Warn("spk number collision, regenerating",
			zap.String("spk_number", workOrder.Number),
			zap.Int("attempt", attempt),
		)
	}
	return domain.Persistence("create_work_order", domain.ErrNumberSpaceExhausted)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.WorkOrder, error) {
	workOrderID, err := parseID(id)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, workOrderID)
	if err != nil {
		return domain.WorkOrder{}, domain.Persistence("get_work_order", err)
	}
	if item == nil {
		return domain.WorkOrder{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListWorkOrderRequest) (domain.ListWorkOrderResponse, error) {
	filter := domain.ListWorkOrderFilter{
		Status:     domain.Status(strings.ToLower(strings.TrimSpace(req.Status))),
		VendorName: strings.TrimSpace(req.VendorName),
	}
	switch filter.Status {
	case "", domain.StatusDraft, domain.StatusPublished:
	default:
		return domain.ListWorkOrderResponse{}, &domain.ValidationError{Errors: []domain.FieldError{{
			Field:   "status",
			Code:    validation.CodeInvalidChoice,
			Message: "Status must be one of draft, published",
		}}}
	}

	var cursor *pagination.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListWorkOrderResponse{}, domain.ErrInvalidPageToken
		}
		cursor = decoded
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, filter, cursor, limit)
	if err != nil {
		return domain.ListWorkOrderResponse{}, domain.Persistence("list_work_orders", err)
	}

	page, info, err := pagination.BuildCursorPageInfo(items, limit, func(item domain.WorkOrder) pagination.Cursor {
		return pagination.Cursor{ID: item.ID.Int64(), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListWorkOrderResponse{}, err
	}
	if page == nil {
		page = []domain.WorkOrder{}
	}
	return domain.ListWorkOrderResponse{PageInfo: info, WorkOrders: page}, nil
}

func (s *Service) ListByVendor(ctx context.Context, vendorSlug string) ([]domain.WorkOrder, error) {
	name := format.VendorNameFromSlug(vendorSlug)
	if name == "" {
		return []domain.WorkOrder{}, nil
	}
	items, err := s.repo.ListByVendorName(ctx, s.db, name)
	if err != nil {
		return nil, domain.Persistence("list_vendor_work_orders", err)
	}
	if items == nil {
		items = []domain.WorkOrder{}
	}
	return items, nil
}

func (s *Service) ListPayments(ctx context.Context, workOrderID string) ([]domain.Payment, error) {
	id, err := parseID(workOrderID)
	if err != nil {
		return nil, err
	}
	workOrder, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, domain.Persistence("list_payments", err)
	}
	if workOrder == nil {
		return nil, domain.ErrNotFound
	}
	return workOrder.Payments, nil
}

// Publish moves a draft to published exactly once. A repeated or losing
// concurrent call reports AlreadyPublished and emits nothing.
func (s *Service) Publish(ctx context.Context, id string) (domain.PublishResult, error) {
	workOrderID, err := parseID(id)
	if err != nil {
		return domain.PublishResult{}, err
	}

	var result domain.PublishResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.MarkPublished(ctx, tx, workOrderID, s.now())
		if err != nil {
			return err
		}
		item, err := s.repo.FindByID(ctx, tx, workOrderID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		result = domain.PublishResult{WorkOrder: *item, AlreadyPublished: !changed}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.WithContext(ctx, s.log).Error("failed to publish work order", zap.String("work_order_id", id), zap.Error(err))
		}
		return domain.PublishResult{}, domain.Persistence("publish_work_order", err)
	}

	if result.AlreadyPublished {
		s.metrics.RecordWorkOrderPublished(ctx, "noop")
		return result, nil
	}

	workOrder := result.WorkOrder
	s.audit(ctx, auditdomain.ActionWorkOrderPublished, auditdomain.TargetWorkOrder, workOrder.ID.String(), map[string]any{
		"spk_number": workOrder.Number,
		"revision":   workOrder.Revision,
	})
	s.metrics.RecordWorkOrderPublished(ctx, "published")
	s.publisher.Publish(ctx, domain.WorkOrderPublished{
		WorkOrder:   workOrder,
		VendorSlug:  format.VendorSlug(workOrder.VendorName),
		VendorLink:  s.links.Vendor(workOrder.VendorName),
		DocumentURL: s.links.Document(workOrder.ID),
		OccurredAt:  workOrder.UpdatedAt,
	})
	return result, nil
}

// UpdatePaymentStatus overwrites a payment's status, paid date and reference.
// Any status may follow any other. The parent revision moves with it.
func (s *Service) UpdatePaymentStatus(ctx context.Context, req domain.UpdatePaymentRequest) (domain.Payment, error) {
	if err := s.validator.ValidatePaymentUpdate(req); err != nil {
		return domain.Payment{}, err
	}
	paymentID, err := snowflake.ParseString(strings.TrimSpace(req.PaymentID))
	if err != nil || paymentID == 0 {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}

	var paidDate *time.Time
	if strings.TrimSpace(req.PaidDate) != "" {
		parsed, _ := validation.ParseDate(req.PaidDate)
		paidDate = &parsed
	}
	actor := s.actor(ctx)

	var (
		payment   domain.Payment
		workOrder domain.WorkOrder
		previous  domain.PaymentStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindPaymentByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrPaymentNotFound
		}
		previous = current.Status

		updatedAt := s.now()
		if !updatedAt.After(current.UpdatedAt) {
			updatedAt = current.UpdatedAt.Add(time.Microsecond)
		}

		payment = *current
		payment.Status = domain.PaymentStatus(req.Status)
		payment.PaidDate = paidDate
		payment.PaymentReference = optional(req.PaymentReference)
		payment.UpdatedBy = actor
		payment.UpdatedAt = updatedAt

		if err := s.repo.UpdatePayment(ctx, tx, &payment); err != nil {
			return err
		}
		if err := s.repo.BumpRevision(ctx, tx, payment.WorkOrderID); err != nil {
			return err
		}
		parent, err := s.repo.FindByID(ctx, tx, payment.WorkOrderID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrNotFound
		}
		workOrder = *parent
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPaymentNotFound) && !errors.Is(err, domain.ErrNotFound) {
			logger.WithContext(ctx, s.log).Error("failed to update payment", zap.String("payment_id", req.PaymentID), zap.Error(err))
		}
		return domain.Payment{}, domain.Persistence("update_payment", err)
	}

	s.audit(ctx, auditdomain.ActionPaymentUpdated, auditdomain.TargetPayment, payment.ID.String(), map[string]any{
		"work_order_id": payment.WorkOrderID.String(),
		"term":          string(payment.Term),
		"from":          string(previous),
		"to":            string(payment.Status),
		"reference":     deref(payment.PaymentReference),
	})
	s.metrics.RecordPaymentUpdated(ctx, string(payment.Term), string(payment.Status))
	s.publisher.Publish(ctx, domain.PaymentUpdated{
		Payment:     payment,
		WorkOrder:   workOrder,
		VendorSlug:  format.VendorSlug(workOrder.VendorName),
		VendorLink:  s.links.Vendor(workOrder.VendorName),
		DocumentURL: s.links.Document(workOrder.ID),
		OccurredAt:  payment.UpdatedAt,
	})
	return payment, nil
}

// Delete removes the work order and its payments at any status. The stored
// document is dropped afterwards on a best-effort basis.
func (s *Service) Delete(ctx context.Context, id string) error {
	workOrderID, err := parseID(id)
	if err != nil {
		return err
	}

	var removed domain.WorkOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, workOrderID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		removed = *item
		ok, err := s.repo.Delete(ctx, tx, workOrderID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.WithContext(ctx, s.log).Error("failed to delete work order", zap.String("work_order_id", id), zap.Error(err))
		}
		return domain.Persistence("delete_work_order", err)
	}

	if key := deref(removed.DocumentKey); key != "" && s.artifacts != nil {
		if err := s.artifacts.Delete(ctx, key); err != nil {
			logger.WithContext(ctx, s.log).Warn("failed to delete document artifact", zap.String("key", key), zap.Error(err))
		}
	}
	s.audit(ctx, auditdomain.ActionWorkOrderDeleted, auditdomain.TargetWorkOrder, removed.ID.String(), map[string]any{
		"spk_number": removed.Number,
		"status":     string(removed.Status),
	})
	return nil
}

func (s *Service) audit(ctx context.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	// Audit failures are logged by the audit service and never fail the transition.
	_ = s.auditSvc.Record(ctx, action, targetType, targetID, metadata)
}

func (s *Service) actor(ctx context.Context) string {
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return s.defaultActor
}

// now truncates to microseconds, the finest resolution every supported store keeps.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
