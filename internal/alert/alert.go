// Package alert sends ntfy-compatible operator notifications. The engine
// sends one when the pin detector reports a high-risk candidate;
// invariant violations and ingest failures do not trigger alerts.
package alert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config controls whether and where alerts are sent.
type Config struct {
	Enabled bool
	Server  string
	Topic   string
	Token   string
}

// Notifier sends operator-facing alerts.
type Notifier interface {
	Alert(ctx context.Context, title, message string) error
}

// Client posts alerts to an ntfy topic.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

// New returns a Client, or a NoopNotifier if alerting is disabled.
func New(cfg Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return &Client{httpClient: &http.Client{Timeout: 10 * time.Second}, cfg: cfg, logger: logger}
}

// Alert posts a high-priority notification.
func (c *Client) Alert(ctx context.Context, title, message string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.cfg.Server, "/"), c.cfg.Topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("alert: creating request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "rotating_light")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("alert send failed", zap.Error(err))
		return fmt.Errorf("alert: sending: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert: server returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier discards alerts.
type NoopNotifier struct{}

// Alert is a no-op.
func (NoopNotifier) Alert(context.Context, string, string) error { return nil }
