package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListWorkOrderFilter struct {
	Status     Status
	VendorName string
}

type Repository interface {
	InsertWorkOrder(ctx context.Context, db *gorm.DB, workOrder *WorkOrder) error
	InsertPayments(ctx context.Context, db *gorm.DB, payments []Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WorkOrder, error)
	FindPayments(ctx context.Context, db *gorm.DB, workOrderID snowflake.ID) ([]Payment, error)
	FindPaymentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter ListWorkOrderFilter, cursor *pagination.Cursor, limit int) ([]WorkOrder, error)
	ListByVendorName(ctx context.Context, db *gorm.DB, vendorName string) ([]WorkOrder, error)

	// MarkPublished moves a draft to published and reports whether this call did it.
	MarkPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
	UpdatePayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	// BumpRevision marks a payment-level change on the parent without touching its fields.
	BumpRevision(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	SetDocument(ctx context.Context, db *gorm.DB, id snowflake.ID, key, url *string, revision int64) error

	// Delete removes the work order and its payments; it reports false when nothing matched.
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
