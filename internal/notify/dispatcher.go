package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultpay/backend/internal/events"
	"github.com/vaultpay/backend/internal/observability"
	"go.uber.org/zap"
)

// Deliverer performs one delivery attempt to one recipient.
type Deliverer interface {
	Deliver(ctx context.Context, recipient uuid.UUID, event events.Event) error
}

// Dispatcher fans one domain event out to its recipients, applying the
// cooldown limiter. Delivery is at most one attempt, best-effort.
type Dispatcher struct {
	limiter   Limiter
	deliverer Deliverer
	log       *zap.Logger
}

func NewDispatcher(limiter Limiter, deliverer Deliverer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{limiter: limiter, deliverer: deliverer, log: log}
}

func (d *Dispatcher) Handle(ctx context.Context, event events.Event) {
	for _, recipient := range RecipientIDs(event) {
		if !d.limiter.Allow(ctx, recipient, event.Type) {
			observability.NotificationsSuppressed.WithLabelValues(event.Type).Inc()
			continue
		}
		if err := d.deliverer.Deliver(ctx, recipient, event); err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("kind", event.Type),
				zap.String("recipient", recipient.String()),
				zap.Error(err),
			)
		}
	}
}

// RecipientIDs extracts the recipient user ids from an event payload.
// Payloads cross a JSON boundary, so the list arrives as []any of strings.
func RecipientIDs(event events.Event) []uuid.UUID {
	raw, ok := event.Payload["recipient_ids"]
	if !ok {
		return nil
	}

	var ids []uuid.UUID
	switch list := raw.(type) {
	case []string:
		for _, s := range list {
			if id, err := uuid.Parse(s); err == nil {
				ids = append(ids, id)
			}
		}
	case []any:
		for _, v := range list {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if id, err := uuid.Parse(s); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
