// Package notify is the boundary between the escrow engine and whatever
// delivers notifications. The engine fires one event per domain occurrence
// and never retries or throttles; cooldown and delivery live on this side.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultpay/backend/internal/events"
	"github.com/vaultpay/backend/internal/models"
	"github.com/vaultpay/backend/internal/observability"
	"go.uber.org/zap"
)

type Notifier interface {
	TransactionEvent(ctx context.Context, kind string, t *models.Transaction, recipients ...uuid.UUID)
}

// EventNotifier publishes domain events to the transaction stream.
// Publish failures are logged and swallowed: delivery trouble must never
// roll back the domain transition that triggered it.
type EventNotifier struct {
	publisher events.Publisher
	log       *zap.Logger
}

func NewEventNotifier(publisher events.Publisher, log *zap.Logger) *EventNotifier {
	return &EventNotifier{publisher: publisher, log: log}
}

func (n *EventNotifier) TransactionEvent(ctx context.Context, kind string, t *models.Transaction, recipients ...uuid.UUID) {
	recipientIDs := make([]string, len(recipients))
	for i, r := range recipients {
		recipientIDs[i] = r.String()
	}

	err := n.publisher.Publish(ctx, events.StreamTransactions, events.Event{
		Type: kind,
		Payload: map[string]any{
			"transaction_id": t.ID.String(),
			"vtid":           t.VTID,
			"status":         t.Status,
			"amount":         t.Amount.StringFixed(2),
			"sender_id":      t.SenderID.String(),
			"receiver_id":    t.ReceiverID.String(),
			"recipient_ids":  recipientIDs,
		},
	})
	if err != nil {
		n.log.Warn("failed to publish transaction event",
			zap.String("kind", kind),
			zap.String("vtid", t.VTID),
			zap.Error(err),
		)
		return
	}
	observability.NotificationsPublished.WithLabelValues(kind).Inc()
}
