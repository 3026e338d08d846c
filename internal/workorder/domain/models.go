package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type Term string

const (
	TermDP       Term = "dp"
	TermProgress Term = "progress"
	TermFinal    Term = "final"
)

// Terms lists the installment terms in payment order.
var Terms = []Term{TermDP, TermProgress, TermFinal}

// Rank orders terms dp, progress, final. Unknown terms sort last.
func (t Term) Rank() int {
	for i, term := range Terms {
		if term == t {
			return i
		}
	}
	return len(Terms)
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// WorkOrder is an SPK: a vendor contract with a fixed three-term payment plan.
// Contract terms are immutable after creation.
type WorkOrder struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number             string          `gorm:"not null;uniqueIndex:ux_work_orders_number" json:"spk_number"`
	VendorName         string          `gorm:"not null" json:"vendor_name"`
	VendorEmail        *string         `json:"vendor_email"`
	VendorPhone        *string         `json:"vendor_phone"`
	ProjectName        string          `gorm:"not null" json:"project_name"`
	ProjectDescription *string         `json:"project_description"`
	ContractValue      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"contract_value"`
	Currency           string          `gorm:"type:varchar(3);not null" json:"currency"`
	StartDate          time.Time       `gorm:"not null" json:"start_date"`
	EndDate            *time.Time      `json:"end_date"`
	DpPercentage       decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"dp_percentage"`
	DpAmount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"dp_amount"`
	ProgressPercentage decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"progress_percentage"`
	ProgressAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"progress_amount"`
	FinalPercentage    decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"final_percentage"`
	FinalAmount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"final_amount"`
	Status             Status          `gorm:"type:varchar(16);not null;index" json:"status"`
	Notes              *string         `json:"notes"`
	CreatedBy          string          `gorm:"not null" json:"created_by"`

	// Revision increases on every mutation of the work order or one of its
	// payments. Rendered documents are keyed by it.
	Revision         int64   `gorm:"not null;default:1" json:"revision"`
	DocumentKey      *string `json:"-"`
	DocumentURL      *string `json:"document_url,omitempty"`
	DocumentRevision int64   `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:WorkOrderID" json:"payments,omitempty"`
}

func (WorkOrder) TableName() string { return "work_orders" }

func (w WorkOrder) IsPublished() bool { return w.Status == StatusPublished }

// HasCurrentDocument reports whether the persisted artifact matches the current revision.
func (w WorkOrder) HasCurrentDocument() bool {
	return w.DocumentKey != nil && *w.DocumentKey != "" && w.DocumentRevision == w.Revision
}

// Payment is one installment of a work order. Amount and percentage are fixed
// at creation; status moves freely between pending, paid and overdue.
type Payment struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	WorkOrderID      snowflake.ID    `gorm:"not null;uniqueIndex:ux_payments_work_order_term" json:"work_order_id"`
	Term             Term            `gorm:"type:varchar(16);not null;uniqueIndex:ux_payments_work_order_term" json:"term"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Percentage       decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"percentage"`
	Status           PaymentStatus   `gorm:"type:varchar(16);not null" json:"status"`
	PaidDate         *time.Time      `json:"paid_date"`
	PaymentReference *string         `json:"payment_reference"`
	UpdatedBy        string          `gorm:"not null" json:"updated_by"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
