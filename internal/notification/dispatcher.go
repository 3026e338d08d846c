package notification

import (
	"context"
	"errors"
	"sync"

	obscontext "github.com/smallbiznis/spk/internal/observability/context"
	"github.com/smallbiznis/spk/internal/observability/logger"
	"github.com/smallbiznis/spk/internal/observability/metrics"
	"github.com/smallbiznis/spk/internal/workorder/domain"
	"go.uber.org/zap"
)

const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

var errUnsupportedEvent = errors.New("unsupported_event")

// Transport performs a single webhook attempt.
type Transport interface {
	Post(ctx context.Context, url, eventType string, payload any) (string, error)
}

// Result is the outcome of one delivery attempt.
type Result struct {
	EventType  string
	Endpoint   string
	DeliveryID string
	Skipped    bool
	Err        error
}

// Dispatcher turns committed lifecycle events into webhook calls. Publish
// returns immediately; delivery runs detached from the caller's context.
type Dispatcher struct {
	source    ConfigSource
	transport Transport
	log       *zap.Logger
	metrics   *metrics.Metrics

	wg sync.WaitGroup
}

func NewDispatcher(source ConfigSource, transport Transport, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		source:    source,
		transport: transport,
		log:       log.Named("notification.dispatcher"),
		metrics:   m,
	}
}

var _ domain.EventPublisher = (*Dispatcher)(nil)

// Publish schedules delivery of event and never blocks on the network.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) {
	if event == nil {
		return
	}
	ctx, _ = obscontext.EnsureCorrelationID(ctx)
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(detached, event)
	}()
}

// Dispatch delivers event synchronously. Failures are logged and counted and
// reported in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) Result {
	eventType := event.EventType()
	endpoint := d.source.Endpoint(eventType)
	res := Result{EventType: eventType, Endpoint: endpoint}
	log := logger.WithContext(ctx, d.log).With(
		zap.String("event_type", eventType),
		zap.String("work_order_id", event.Snapshot().ID.String()),
	)

	if endpoint == "" {
		res.Skipped = true
		d.metrics.RecordNotification(ctx, eventType, outcomeSkipped)
		log.Debug("notification endpoint not configured")
		return res
	}

	payload, err := payloadFor(event)
	if err != nil {
		return d.fail(ctx, log, res, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.source.Timeout())
	defer cancel()

	res.DeliveryID, err = d.transport.Post(ctx, endpoint, eventType, payload)
	if err != nil {
		return d.fail(ctx, log, res, err)
	}

	d.metrics.RecordNotification(ctx, eventType, outcomeDelivered)
	log.Info("notification delivered", zap.String("delivery_id", res.DeliveryID))
	return res
}

// Wait blocks until every scheduled delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, res Result, err error) Result {
	res.Err = &NotificationError{
		EventType:  res.EventType,
		Endpoint:   res.Endpoint,
		DeliveryID: res.DeliveryID,
		Err:        err,
	}
	d.metrics.RecordNotification(ctx, res.EventType, outcomeFailed)
	log.Warn("notification delivery failed",
		zap.String("endpoint", res.Endpoint),
		zap.String("delivery_id", res.DeliveryID),
		zap.Error(err),
	)
	return res
}

func payloadFor(event domain.Event) (any, error) {
	switch evt := event.(type) {
	case domain.WorkOrderPublished:
		return NewWorkOrderPayload(evt), nil
	case *domain.WorkOrderPublished:
		return NewWorkOrderPayload(*evt), nil
	case domain.PaymentUpdated:
		return NewPaymentPayload(evt), nil
	case *domain.PaymentUpdated:
		return NewPaymentPayload(*evt), nil
	default:
		return nil, errUnsupportedEvent
	}
}
