package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/crease/internal/domain/model"
)

// Webhook POSTs each payload as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *http.Client
}

type webhookBody struct {
	UserID string `json:"userId"`
	model.PushPayload
}

// NewWebhook creates a webhook pusher.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Deliver(ctx context.Context, userID string, payload model.PushPayload) error {
	body, err := json.Marshal(webhookBody{UserID: userID, PushPayload: payload})
	if err != nil {
		return wrap("webhook", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return wrap("webhook", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return wrap("webhook", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return wrap("webhook", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
