package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpay/backend/internal/events"
	"go.uber.org/zap"
)

// WebhookDeliverer posts one JSON document per notification to an
// external endpoint. A non-2xx response counts as a failed delivery.
type WebhookDeliverer struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewWebhookDeliverer(url string, log *zap.Logger) *WebhookDeliverer {
	return &WebhookDeliverer{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (w *WebhookDeliverer) Deliver(ctx context.Context, recipient uuid.UUID, event events.Event) error {
	body, err := json.Marshal(map[string]any{
		"recipient_id": recipient.String(),
		"kind":         event.Type,
		"payload":      event.Payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogDeliverer writes notifications to the application log. Used when no
// webhook endpoint is configured.
type LogDeliverer struct {
	log *zap.Logger
}

func NewLogDeliverer(log *zap.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

func (l *LogDeliverer) Deliver(_ context.Context, recipient uuid.UUID, event events.Event) error {
	l.log.Info("notification",
		zap.String("recipient", recipient.String()),
		zap.String("kind", event.Type),
		zap.Any("payload", event.Payload),
	)
	return nil
}
