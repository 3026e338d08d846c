package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spk/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionWorkOrderCreated    = "workorder.created"
	ActionWorkOrderPublished  = "workorder.published"
	ActionWorkOrderDeleted    = "workorder.deleted"
	ActionPaymentUpdated      = "payment.updated"
	ActionDocumentRendered    = "document.rendered"
	ActionDocumentInvalidated = "document.invalidated"

	TargetWorkOrder = "work_order"
	TargetPayment   = "payment"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Actor      string            `gorm:"not null" json:"actor"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   string            `gorm:"not null;index" json:"target_id"`
	RequestID  *string           `json:"request_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"not null" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	TargetType string
	TargetID   string
	Action     string
	Cursor     *pagination.Cursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

type ListAuditLogRequest struct {
	pagination.Pagination
	TargetType string
	TargetID   string
	Action     string
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Record writes one entry attributed to the actor on ctx.
	Record(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
