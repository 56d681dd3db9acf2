package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID       `json:"id"`
	VaultID      string          `json:"vault_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        *string         `json:"phone,omitempty"`
	Location     *string         `json:"location,omitempty"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	// EscrowBalance is the sum of amounts this user has locked as sender
	// in transactions that are still pending or accepted.
	EscrowBalance decimal.Decimal `json:"escrow_balance"`
	// UnreadTransactionIDs lists transactions awaiting this user's attention.
	// An id is removed when the user views that transaction.
	UnreadTransactionIDs []uuid.UUID `json:"unread_transaction_ids"`
	CreatedAt            time.Time   `json:"created_at"`
}
