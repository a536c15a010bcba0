package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/imgcrush/api/internal/model"
)

// Notifier delivers terminal status callbacks.
type Notifier interface {
	Notify(ctx context.Context, endpoint string, n *model.WebhookNotification) error
}

// WebhookClient implements Notifier as a single best-effort POST.
// Callers log and swallow the returned error; delivery never affects
// the already-committed request status.
type WebhookClient struct {
	httpClient *http.Client
}

func NewWebhookClient(timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify POSTs the payload as JSON. A missing endpoint is a no-op.
func (c *WebhookClient) Notify(ctx context.Context, endpoint string, n *model.WebhookNotification) error {
	if endpoint == "" {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to notify webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
