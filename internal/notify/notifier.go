// Package notify dispatches WhatsApp alerts to the configured household
// number via Twilio. Dispatch is fire-and-forget: failures are logged and
// never escalated to callers as retryable conditions.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config configures the Twilio sender.
type Config struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	FromNumber string
	ToNumber   string
	Timeout    time.Duration
}

// Notifier sends WhatsApp messages to one fixed recipient.
type Notifier struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotifier returns a Twilio-backed notifier.
func NewNotifier(cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Notifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send delivers body to the configured recipient. The returned error exists
// for tests; production callers log and move on, since no delivery
// confirmation is surfaced to users either way.
func (n *Notifier) Send(ctx context.Context, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.cfg.BaseURL, n.cfg.AccountSID)

	form := url.Values{}
	form.Set("From", "whatsapp:"+n.cfg.FromNumber)
	form.Set("To", "whatsapp:"+n.cfg.ToNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		n.logger.Error("failed to build message request", zap.Error(err))
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("failed to send message",
			zap.String("to", n.cfg.ToNumber),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("message send failed with status %d: %s", resp.StatusCode, detail)
		n.logger.Error("failed to send message",
			zap.String("to", n.cfg.ToNumber),
			zap.Error(err))
		return err
	}

	n.logger.Info("message sent", zap.String("to", n.cfg.ToNumber))
	return nil
}
