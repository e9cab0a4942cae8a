package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/notify"
)

// Slack webhook text caps out well above this, but alerts carry whole
// reports; keep the message readable in-channel.
const maxSlackText = 4000

// Slack posts alerts to an incoming webhook.
type Slack struct {
	WebhookURL string
	HTTP       *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{WebhookURL: webhookURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

func (s *Slack) Channel() string { return "slack_webhook" }

func (s *Slack) Send(ctx context.Context, a domain.Alert) error {
	text := fmt.Sprintf("*%s*\n%s", a.Name, a.Text)
	if runes := []rune(text); len(runes) > maxSlackText {
		text = string(runes[:maxSlackText]) + "..."
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack webhook error (status %d)", resp.StatusCode)
	}
	return nil
}
