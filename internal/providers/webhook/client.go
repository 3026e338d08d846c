package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	obstracing "github.com/smallbiznis/spk/internal/observability/tracing"
)

const (
	HeaderEvent    = "X-Webhook-Event"
	HeaderDelivery = "X-Webhook-Delivery"

	defaultTimeout = 5 * time.Second
	maxErrorBody   = 512
)

// StatusError reports a non-2xx answer from the receiving endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

// Client posts JSON payloads to webhook endpoints. Each call is one attempt.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func New(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "spk-webhook"
	}
	return &Client{
		httpClient: obstracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		userAgent:  userAgent,
	}
}

// Post sends payload and returns the delivery id it was sent under.
func (c *Client) Post(ctx context.Context, url, eventType string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode webhook payload: %w", err)
	}

	deliveryID := ulid.Make().String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return deliveryID, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderEvent, eventType)
	req.Header.Set(HeaderDelivery, deliveryID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return deliveryID, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return deliveryID, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return deliveryID, nil
}
