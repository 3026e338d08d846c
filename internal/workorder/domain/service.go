package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/pkg/db/pagination"
)

type CreateWorkOrderRequest struct {
	VendorName         string          `json:"vendor_name" validate:"notblank"`
	VendorEmail        string          `json:"vendor_email" validate:"omitempty,email"`
	VendorPhone        string          `json:"vendor_phone" validate:"omitempty,max=50"`
	ProjectName        string          `json:"project_name" validate:"notblank"`
	ProjectDescription string          `json:"project_description"`
	ContractValue      decimal.Decimal `json:"contract_value" validate:"gt=0"`
	Currency           string          `json:"currency" validate:"omitempty,len=3,alpha"`
	StartDate          string          `json:"start_date" validate:"notblank,date"`
	EndDate            string          `json:"end_date" validate:"omitempty,date"`
	DpPercentage       decimal.Decimal `json:"dp_percentage" validate:"gte=0,lte=100"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage" validate:"gte=0,lte=100"`
	FinalPercentage    decimal.Decimal `json:"final_percentage" validate:"gte=0,lte=100"`
	Notes              string          `json:"notes"`
}

type UpdatePaymentRequest struct {
	PaymentID        string `json:"-"`
	Status           string `json:"status" validate:"required,oneof=pending paid overdue"`
	PaidDate         string `json:"paid_date" validate:"omitempty,date"`
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=255"`
}

type ListWorkOrderRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	VendorName string `form:"vendor_name"`
}

type ListWorkOrderResponse struct {
	pagination.PageInfo
	WorkOrders []WorkOrder `json:"work_orders"`
}

// PublishResult reports the work order after publish. AlreadyPublished is set
// when the call found it published and changed nothing.
type PublishResult struct {
	WorkOrder        WorkOrder `json:"work_order"`
	AlreadyPublished bool      `json:"already_published"`
}

type Service interface {
	Create(ctx context.Context, req CreateWorkOrderRequest) (WorkOrder, error)
	GetByID(ctx context.Context, id string) (WorkOrder, error)
	List(ctx context.Context, req ListWorkOrderRequest) (ListWorkOrderResponse, error)
	ListByVendor(ctx context.Context, vendorSlug string) ([]WorkOrder, error)
	ListPayments(ctx context.Context, workOrderID string) ([]Payment, error)
	Publish(ctx context.Context, id string) (PublishResult, error)
	UpdatePaymentStatus(ctx context.Context, req UpdatePaymentRequest) (Payment, error)
	Delete(ctx context.Context, id string) error
}
