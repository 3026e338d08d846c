package notification

import (
	"time"

	"github.com/smallbiznis/spk/internal/config"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

const defaultTimeout = 5 * time.Second

// ConfigSource yields the endpoint registered for an event type. An empty
// endpoint means the event is not delivered.
type ConfigSource interface {
	Endpoint(eventType string) string
	Timeout() time.Duration
}

// StaticConfig is a fixed ConfigSource.
type StaticConfig struct {
	Endpoints       map[string]string
	DeliveryTimeout time.Duration
}

func (c StaticConfig) Endpoint(eventType string) string {
	return c.Endpoints[eventType]
}

func (c StaticConfig) Timeout() time.Duration {
	if c.DeliveryTimeout <= 0 {
		return defaultTimeout
	}
	return c.DeliveryTimeout
}

// HolderSource reads endpoints from the hot-reloadable notification config.
type HolderSource struct {
	holder *config.NotificationHolder
}

func NewHolderSource(holder *config.NotificationHolder) ConfigSource {
	return &HolderSource{holder: holder}
}

func (s *HolderSource) Endpoint(eventType string) string {
	cfg := s.holder.Current()
	switch eventType {
	case domain.EventWorkOrderPublished:
		return cfg.WorkOrderPublishedURL
	case domain.EventPaymentUpdated:
		return cfg.PaymentUpdatedURL
	default:
		return ""
	}
}

func (s *HolderSource) Timeout() time.Duration {
	return StaticConfig{DeliveryTimeout: s.holder.Current().Timeout}.Timeout()
}
