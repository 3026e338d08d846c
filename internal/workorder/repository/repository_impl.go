package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"github.com/smallbiznis/spk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const termOrder = "CASE term WHEN 'dp' THEN 0 WHEN 'progress' THEN 1 WHEN 'final' THEN 2 ELSE 3 END"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertWorkOrder(ctx context.Context, db *gorm.DB, workOrder *domain.WorkOrder) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(workOrder).Error
}

func (r *repo) InsertPayments(ctx context.Context, db *gorm.DB, payments []domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&payments).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WorkOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var workOrder domain.WorkOrder
	res := db.WithContext(ctx).
		Preload("Payments", orderByTerm).
		Where("id = ?", id).
		Limit(1).
		Find(&workOrder)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &workOrder, nil
}

func (r *repo) FindPayments(ctx context.Context, db *gorm.DB, workOrderID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order(termOrder).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	if id == 0 {
		return nil, nil
	}
	var payment domain.Payment
	res := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&payment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListWorkOrderFilter, cursor *pagination.Cursor, limit int) ([]domain.WorkOrder, error) {
	stmt := db.WithContext(ctx).Model(&domain.WorkOrder{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if name := strings.TrimSpace(filter.VendorName); name != "" {
		stmt = stmt.Where("LOWER(vendor_name) LIKE ? ESCAPE '!'", containsPattern(name))
	}
	if cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit + 1)
	}

	var workOrders []domain.WorkOrder
	err := stmt.
		Order("created_at desc, id desc").
		Find(&workOrders).Error
	if err != nil {
		return nil, err
	}
	return workOrders, nil
}

func (r *repo) ListByVendorName(ctx context.Context, db *gorm.DB, vendorName string) ([]domain.WorkOrder, error) {
	var workOrders []domain.WorkOrder
	err := db.WithContext(ctx).
		Preload("Payments", orderByTerm).
		Where("LOWER(vendor_name) LIKE ? ESCAPE '!'", containsPattern(vendorName)).
		Order("created_at desc, id desc").
		Find(&workOrders).Error
	if err != nil {
		return nil, err
	}
	return workOrders, nil
}

func (r *repo) MarkPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.WorkOrder{}).
		Where("id = ? AND status = ?", id, domain.StatusDraft).
		Updates(map[string]interface{}{
			"status":     domain.StatusPublished,
			"updated_at": at,
			"revision":   gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":            payment.Status,
			"paid_date":         payment.PaidDate,
			"payment_reference": payment.PaymentReference,
			"updated_by":        payment.UpdatedBy,
			"updated_at":        payment.UpdatedAt,
		}).Error
}

func (r *repo) BumpRevision(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.WorkOrder{}).
		Where("id = ?", id).
		UpdateColumn("revision", gorm.Expr("revision + 1")).Error
}

// SetDocument never replaces a reference recorded for a newer revision. A zero
// revision clears the reference unconditionally.
func (r *repo) SetDocument(ctx context.Context, db *gorm.DB, id snowflake.ID, key, url *string, revision int64) error {
	query := db.WithContext(ctx).
		Model(&domain.WorkOrder{}).
		Where("id = ?", id)
	if revision > 0 {
		query = query.Where("document_revision <= ?", revision)
	}
	return query.
		UpdateColumns(map[string]interface{}{
			"document_key":      key,
			"document_url":      url,
			"document_revision": revision,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	if err := db.WithContext(ctx).Where("work_order_id = ?", id).Delete(&domain.Payment{}).Error; err != nil {
		return false, err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.WorkOrder{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func orderByTerm(tx *gorm.DB) *gorm.DB {
	return tx.Order(termOrder)
}

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(value))) + "%"
}
