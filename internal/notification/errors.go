package notification

import "fmt"

// NotificationError describes a failed delivery. It is logged and counted,
// never returned to the operation that triggered it.
type NotificationError struct {
	EventType  string
	Endpoint   string
	DeliveryID string
	Err        error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s to %s: %v", e.EventType, e.Endpoint, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
