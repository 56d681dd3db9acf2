package events

import "context"

// StreamTransactions carries one event per escrow state transition
// and per condition update.
const StreamTransactions = "events:transaction"

// Event kinds
const (
	EventTransactionPending   = "transaction_pending"
	EventTransactionAccepted  = "transaction_accepted"
	EventTransactionCompleted = "transaction_completed"
	EventTransactionCancelled = "transaction_cancelled"
	EventConditionUpdated     = "condition_updated"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
