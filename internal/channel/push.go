package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/observability"
)

// PushSender delivers one push notification at a time through a JSON
// gateway API.
type PushSender struct {
	cfg     config.PushConfig
	client  *http.Client
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPushSender constructs the adapter.
func NewPushSender(cfg config.PushConfig, metrics *observability.Metrics, logger *zap.Logger) *PushSender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushSender{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

type pushRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

type pushResponse struct {
	Status string `json:"status"`
}

// SendMessage posts one push notification and returns the gateway status.
// The "to" address is the recipient's push registration id.
func (p *PushSender) SendMessage(ctx context.Context, to, from, body string) (string, error) {
	if p.cfg.APIURL == "" {
		return "", fmt.Errorf("push gateway not configured")
	}

	payload, err := json.Marshal(pushRequest{To: to, From: from, Body: body})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.RecordDelivery("push", "error")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.metrics.RecordDelivery("push", "error")
		return "", fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}

	var parsed pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode push response: %w", err)
	}
	if parsed.Status == "" {
		parsed.Status = "sent"
	}

	p.metrics.RecordDelivery("push", parsed.Status)
	p.logger.Debug("push dispatched", zap.String("to", to), zap.String("status", parsed.Status))
	return parsed.Status, nil
}
