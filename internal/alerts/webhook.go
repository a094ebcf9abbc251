package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trade-engine-go/internal/clock"
)

// Embed colors for the webhook payload.
const (
	ColorInfo    = 0x3498db
	ColorWarning = 0xe67e22
	ColorDanger  = 0xe74c3c
)

// WebhookNotifier posts alerts as Discord-style embeds. An empty URL
// disables it without the callers having to care.
type WebhookNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
	clk        clock.Clock
}

func NewWebhookNotifier(webhookURL string, clk clock.Clock) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
		clk:        clk,
	}
}

func (n *WebhookNotifier) Enabled() bool { return n.enabled }

func (n *WebhookNotifier) Send(title, message string, color int) error {
	if !n.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       title,
				"description": message,
				"color":       color,
				"footer": map[string]string{
					"text": "Trade Engine",
				},
				"timestamp": n.clk.Now().Format(time.RFC3339),
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
