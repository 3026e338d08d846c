package notification

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

// WorkOrderPayload is the flat body posted for workorder.published.
type WorkOrderPayload struct {
	Event              string      `json:"event"`
	ID                 string      `json:"id"`
	SpkNumber          string      `json:"spkNumber"`
	VendorName         string      `json:"vendorName"`
	VendorEmail        *string     `json:"vendorEmail"`
	VendorPhone        *string     `json:"vendorPhone"`
	VendorSlug         string      `json:"vendorSlug"`
	VendorLink         string      `json:"vendorLink"`
	ProjectName        string      `json:"projectName"`
	ProjectDescription *string     `json:"projectDescription"`
	ContractValue      json.Number `json:"contractValue"`
	Currency           string      `json:"currency"`
	StartDate          string      `json:"startDate"`
	EndDate            *string     `json:"endDate"`
	DpPercentage       json.Number `json:"dpPercentage"`
	DpAmount           json.Number `json:"dpAmount"`
	ProgressPercentage json.Number `json:"progressPercentage"`
	ProgressAmount     json.Number `json:"progressAmount"`
	FinalPercentage    json.Number `json:"finalPercentage"`
	FinalAmount        json.Number `json:"finalAmount"`
	Status             string      `json:"status"`
	CreatedAt          string      `json:"createdAt"`
	UpdatedAt          string      `json:"updatedAt"`
	CreatedBy          string      `json:"createdBy"`
	Notes              *string     `json:"notes"`
	PdfURL             string      `json:"pdfUrl"`
}

// PaymentPayload is the body posted for payment.updated: every work order
// field plus the updated payment.
type PaymentPayload struct {
	WorkOrderPayload
	PaymentID         string      `json:"paymentId"`
	PaymentTerm       string      `json:"paymentTerm"`
	PaymentAmount     json.Number `json:"paymentAmount"`
	PaymentPercentage json.Number `json:"paymentPercentage"`
	PaymentStatus     string      `json:"paymentStatus"`
	PaymentPaidDate   *string     `json:"paymentPaidDate"`
	PaymentReference  *string     `json:"paymentReference"`
	PaymentUpdatedAt  string      `json:"paymentUpdatedAt"`
	PaymentUpdatedBy  string      `json:"paymentUpdatedBy"`
}

func NewWorkOrderPayload(evt domain.WorkOrderPublished) WorkOrderPayload {
	return workOrderPayload(domain.EventWorkOrderPublished, evt.WorkOrder, evt.VendorSlug, evt.VendorLink, evt.DocumentURL)
}

func NewPaymentPayload(evt domain.PaymentUpdated) PaymentPayload {
	p := evt.Payment
	return PaymentPayload{
		WorkOrderPayload:  workOrderPayload(domain.EventPaymentUpdated, evt.WorkOrder, evt.VendorSlug, evt.VendorLink, evt.DocumentURL),
		PaymentID:         p.ID.String(),
		PaymentTerm:       string(p.Term),
		PaymentAmount:     number(p.Amount),
		PaymentPercentage: number(p.Percentage),
		PaymentStatus:     string(p.Status),
		PaymentPaidDate:   date(p.PaidDate),
		PaymentReference:  p.PaymentReference,
		PaymentUpdatedAt:  timestamp(p.UpdatedAt),
		PaymentUpdatedBy:  p.UpdatedBy,
	}
}

func workOrderPayload(event string, w domain.WorkOrder, slug, link, documentURL string) WorkOrderPayload {
	return WorkOrderPayload{
		Event:              event,
		ID:                 w.ID.String(),
		SpkNumber:          w.Number,
		VendorName:         w.VendorName,
		VendorEmail:        w.VendorEmail,
		VendorPhone:        w.VendorPhone,
		VendorSlug:         slug,
		VendorLink:         link,
		ProjectName:        w.ProjectName,
		ProjectDescription: w.ProjectDescription,
		ContractValue:      number(w.ContractValue),
		Currency:           w.Currency,
		StartDate:          w.StartDate.UTC().Format(time.DateOnly),
		EndDate:            date(w.EndDate),
		DpPercentage:       number(w.DpPercentage),
		DpAmount:           number(w.DpAmount),
		ProgressPercentage: number(w.ProgressPercentage),
		ProgressAmount:     number(w.ProgressAmount),
		FinalPercentage:    number(w.FinalPercentage),
		FinalAmount:        number(w.FinalAmount),
		Status:             string(w.Status),
		CreatedAt:          timestamp(w.CreatedAt),
		UpdatedAt:          timestamp(w.UpdatedAt),
		CreatedBy:          w.CreatedBy,
		Notes:              w.Notes,
		PdfURL:             documentURL,
	}
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func date(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.DateOnly)
	return &s
}
