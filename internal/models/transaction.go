package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Valid state transitions: from -> []to
var ValidTransitions = map[string][]string{
	StatusPending:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminalStatus(status string) bool {
	allowed, ok := ValidTransitions[status]
	return ok && len(allowed) == 0
}

// Condition is one item of the checklist the sender attests before funds release.
type Condition struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	VTID       string          `json:"vtid"`
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID uuid.UUID       `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	Conditions []Condition     `json:"conditions"`
	// TimeLimit is the deadline window in hours, measured from accepted_at
	// once the transaction is accepted, otherwise from created_at.
	TimeLimit   int        `json:"time_limit"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (t *Transaction) Deadline() time.Time {
	start := t.CreatedAt
	if t.AcceptedAt != nil {
		start = *t.AcceptedAt
	}
	return start.Add(time.Duration(t.TimeLimit) * time.Hour)
}

func (t *Transaction) IsExpired(now time.Time) bool {
	return now.After(t.Deadline())
}

func (t *Transaction) AllConditionsMet() bool {
	if len(t.Conditions) == 0 {
		return false
	}
	for _, c := range t.Conditions {
		if !c.Completed {
			return false
		}
	}
	return true
}
