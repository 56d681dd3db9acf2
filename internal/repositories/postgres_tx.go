package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/backend/internal/models"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
)

// pgTx implements Tx over a single pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

var statusTimestampColumn = map[string]string{
	models.StatusAccepted:  "accepted_at",
	models.StatusCompleted: "completed_at",
	models.StatusCancelled: "cancelled_at",
}

func (p *pgTx) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	conditionsBytes, err := json.Marshal(t.Conditions)
	if err != nil {
		return err
	}
	return p.tx.QueryRow(ctx, `
		INSERT INTO transactions (vtid, sender_id, receiver_id, amount, status, conditions, time_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, t.VTID, t.SenderID, t.ReceiverID, t.Amount, t.Status, conditionsBytes, t.TimeLimit,
	).Scan(&t.ID, &t.CreatedAt)
}

func (p *pgTx) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return scanTransaction(p.tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
}

func (p *pgTx) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error {
	if !models.IsValidTransition(from, to) {
		return pkgerrors.ErrInvalidTransition
	}
	col, ok := statusTimestampColumn[to]
	if !ok {
		return pkgerrors.ErrInvalidTransition
	}

	// Guarded on the previous status: if a concurrent writer got there
	// first the update matches nothing and the caller's guard has failed.
	tag, err := p.tx.Exec(ctx,
		fmt.Sprintf(`UPDATE transactions SET status = $1, %s = $2 WHERE id = $3 AND status = $4`, col),
		to, at, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrInvalidTransition
	}
	return nil
}

func (p *pgTx) UpdateConditions(ctx context.Context, id uuid.UUID, conditions []models.Condition) error {
	conditionsBytes, err := json.Marshal(conditions)
	if err != nil {
		return err
	}
	tag, err := p.tx.Exec(ctx,
		`UPDATE transactions SET conditions = $1 WHERE id = $2 AND status = 'accepted'`,
		conditionsBytes, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrNotAcceptedState
	}
	return nil
}

// --- Ledger ---

func (p *pgTx) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1`,
		amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrInsufficientFunds
	}
	return nil
}

func (p *pgTx) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (p *pgTx) MoveToEscrow(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE users SET escrow_balance = escrow_balance + $1 WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (p *pgTx) ReleaseFromEscrow(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE users SET escrow_balance = escrow_balance - $1 WHERE id = $2 AND escrow_balance >= $1`,
		amount, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pkgerrors.ErrInsufficientFunds
	}
	return nil
}

func (p *pgTx) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := p.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (p *pgTx) MarkUnread(ctx context.Context, userID, txnID uuid.UUID) error {
	_, err := p.tx.Exec(ctx, `
		UPDATE users SET unread_transaction_ids = array_append(unread_transaction_ids, $1)
		WHERE id = $2 AND NOT ($1 = ANY(unread_transaction_ids))
	`, txnID, userID)
	return err
}
