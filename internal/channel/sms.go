package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/observability"
)

// SMSSender delivers one message at a time through a Twilio-style HTTP API.
type SMSSender struct {
	cfg     config.SMSConfig
	client  *http.Client
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSMSSender constructs the adapter with explicit provider credentials.
func NewSMSSender(cfg config.SMSConfig, metrics *observability.Metrics, logger *zap.Logger) *SMSSender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSSender{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

type smsResponse struct {
	Status string `json:"status"`
	SID    string `json:"sid"`
}

// SendMessage posts one SMS and returns the provider's delivery status.
func (s *SMSSender) SendMessage(ctx context.Context, to, from, body string) (string, error) {
	if s.cfg.APIURL == "" {
		return "", fmt.Errorf("sms provider not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordDelivery("sms", "error")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.metrics.RecordDelivery("sms", "error")
		return "", fmt.Errorf("sms provider returned %d", resp.StatusCode)
	}

	var parsed smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}
	if parsed.Status == "" {
		parsed.Status = "queued"
	}

	s.metrics.RecordDelivery("sms", parsed.Status)
	s.logger.Debug("sms dispatched",
		zap.String("to", to),
		zap.String("sid", parsed.SID),
		zap.String("status", parsed.Status))
	return parsed.Status, nil
}
