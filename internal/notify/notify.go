// Package notify pushes level-crossing alerts and trade signals to an
// ntfy topic.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/alert"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

// Notifier sends push notifications for monitor output.
type Notifier interface {
	SendAlert(ctx context.Context, ev alert.Event) error
	SendSignal(ctx context.Context, symbol string, sig *gex.Signal) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendAlert pushes one level-crossing event.
func (c *Client) SendAlert(ctx context.Context, ev alert.Event) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("%s crossed %s %s", ev.Symbol, directionWord(ev.Direction), ev.Level)
	message := FormatAlertMessage(ev)
	tags := c.config.Tags + "," + directionTag(ev.Direction)

	return c.send(ctx, title, message, tags, c.config.Priority)
}

// SendSignal pushes one trade signal.
func (c *Client) SendSignal(ctx context.Context, symbol string, sig *gex.Signal) error {
	if !c.config.Enabled || sig == nil {
		return nil
	}

	title := fmt.Sprintf("%s: %s", symbol, sig.Type)
	message := FormatSignalMessage(symbol, sig)
	tags := c.config.Tags + ",bell"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

func directionWord(d alert.Direction) string {
	if d == alert.Above {
		return "above"
	}
	return "below"
}

func directionTag(d alert.Direction) string {
	if d == alert.Above {
		return "arrow_up"
	}
	return "arrow_down"
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendAlert is a no-op.
func (n *NoopNotifier) SendAlert(_ context.Context, _ alert.Event) error {
	return nil
}

// SendSignal is a no-op.
func (n *NoopNotifier) SendSignal(_ context.Context, _ string, _ *gex.Signal) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
