package domain

import (
	"context"
	"time"
)

const (
	EventWorkOrderPublished = "workorder.published"
	EventPaymentUpdated     = "payment.updated"
)

// Event is a committed lifecycle transition handed to the notification side.
type Event interface {
	EventType() string
	Snapshot() WorkOrder
}

// WorkOrderPublished carries the published work order and its derived vendor
// and document locators.
type WorkOrderPublished struct {
	WorkOrder   WorkOrder
	VendorSlug  string
	VendorLink  string
	DocumentURL string
	OccurredAt  time.Time
}

func (WorkOrderPublished) EventType() string     { return EventWorkOrderPublished }
func (e WorkOrderPublished) Snapshot() WorkOrder { return e.WorkOrder }

// PaymentUpdated carries the updated payment together with its parent work order.
type PaymentUpdated struct {
	Payment     Payment
	WorkOrder   WorkOrder
	VendorSlug  string
	VendorLink  string
	DocumentURL string
	OccurredAt  time.Time
}

func (PaymentUpdated) EventType() string     { return EventPaymentUpdated }
func (e PaymentUpdated) Snapshot() WorkOrder { return e.WorkOrder }

// EventPublisher receives events after the owning transaction commits. It must
// not block on delivery and has no way to fail the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// ArtifactRemover drops a persisted document artifact.
type ArtifactRemover interface {
	Delete(ctx context.Context, key string) error
}
