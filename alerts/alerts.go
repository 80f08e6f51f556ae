package alerts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"art-arbitrage/utils"
)

// Payload is the structured notification sent when a component degrades.
type Payload struct {
	Component string    `json:"component"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives fire-and-forget degradation alerts. Implementations
// must never block the caller or propagate their own failures.
type Notifier interface {
	Notify(p Payload)
}

// NopNotifier drops every alert. Used when no webhook is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(Payload) {}

// WebhookNotifier posts alerts to a configured webhook URL in the
// background. Delivery failures are logged and swallowed.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *utils.Logger
}

// NewWebhookNotifier creates a notifier for the given webhook URL.
func NewWebhookNotifier(url string, logger *utils.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// Notify posts the payload without blocking the caller.
func (w *WebhookNotifier) Notify(p Payload) {
	go func() {
		body, err := json.Marshal(p)
		if err != nil {
			w.logger.Warn("[alerts] Marshal alert payload: %v", err)
			return
		}

		resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
		if err != nil {
			w.logger.Warn("[alerts] Webhook delivery failed: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			w.logger.Warn("[alerts] Webhook returned status %d", resp.StatusCode)
		}
	}()
}
