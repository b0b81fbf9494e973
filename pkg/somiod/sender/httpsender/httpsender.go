// Package httpsender delivers notifications as JSON POSTs to webhook
// endpoints. One shared client, fixed per-request timeout, single attempt.
package httpsender

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds each notification POST.
const DefaultTimeout = 5 * time.Second

// Sender implements somiod.Sender over HTTP/HTTPS.
type Sender struct {
	client *http.Client
}

// New creates a sender with the default timeout.
func New() *Sender {
	return NewWithTimeout(DefaultTimeout)
}

// NewWithTimeout creates a sender whose every request is bounded by timeout.
func NewWithTimeout(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts payload to endpoint. topic is ignored; HTTP has no topic
// concept. A non-2xx response is an error so the dispatcher can log it.
func (s *Sender) Send(ctx context.Context, endpoint, topic string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building notification request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification to %s returned status %d", endpoint, resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the shared client holds no resources worth releasing.
func (s *Sender) Close() error {
	return nil
}
