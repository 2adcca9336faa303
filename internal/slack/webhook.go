package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier delivers messages to a configured incoming webhook. Delivery is
// fire-and-forget: the caller logs and drops failed notifications, no retry
// is performed here.
type Notifier struct {
	webhookURL string
	channel    string
	client     HTTPClient
	log        *slog.Logger
}

// NewNotifier creates a Notifier posting to webhookURL for the given channel.
func NewNotifier(webhookURL, channel string, client HTTPClient, log *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     client,
		log:        log,
	}
}

// Post validates and sends a message built from the given summary text and
// blocks. Validation failures are construction errors and never reach the
// wire.
func (n *Notifier) Post(ctx context.Context, text string, blocks []Block) error {
	msg := &Message{Text: text, Blocks: blocks, Channel: n.channel}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
	}

	n.log.Debug("notification delivered", "text", text, "blocks", len(blocks))
	return nil
}
