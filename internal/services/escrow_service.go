package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/backend/internal/config"
	"github.com/vaultpay/backend/internal/events"
	"github.com/vaultpay/backend/internal/models"
	"github.com/vaultpay/backend/internal/notify"
	"github.com/vaultpay/backend/internal/observability"
	"github.com/vaultpay/backend/internal/repositories"
	"github.com/vaultpay/backend/internal/vaultid"
	pkgerrors "github.com/vaultpay/backend/pkg/errors"
	"go.uber.org/zap"
)

// EscrowService is the only component allowed to move balances or change
// transaction status. Every operation is one atomic storage unit: the
// transaction row is locked, the guard is checked against the current
// status, and all writes commit or roll back together. The sweeper drives
// the same cancellation path as manual cancels.
type EscrowService struct {
	store    repositories.Store
	vtidGen  *vaultid.Generator
	notifier notify.Notifier
	cfg      *config.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewEscrowService(store repositories.Store, notifier notify.Notifier, cfg *config.Config, log *zap.Logger) *EscrowService {
	return &EscrowService{
		store:    store,
		vtidGen:  vaultid.New(vaultid.TransactionLength, store.VTIDExists),
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *EscrowService) CreateTransaction(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, descriptions []string, timeLimitHours int) (*models.Transaction, error) {
	if err := s.validateCreate(senderID, receiverID, amount, descriptions, timeLimitHours); err != nil {
		return nil, err
	}

	vtid, err := s.vtidGen.Generate(ctx)
	if err != nil {
		return nil, err
	}

	conditions := make([]models.Condition, len(descriptions))
	for i, d := range descriptions {
		conditions[i] = models.Condition{Description: strings.TrimSpace(d)}
	}

	t := &models.Transaction{
		VTID:       vtid,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     models.StatusPending,
		Conditions: conditions,
		TimeLimit:  timeLimitHours,
	}

	err = s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		for _, id := range []uuid.UUID{senderID, receiverID} {
			exists, err := tx.UserExists(ctx, id)
			if err != nil {
				return err
			}
			if !exists {
				return pkgerrors.ErrNotFound
			}
		}

		if err := tx.Debit(ctx, senderID, amount); err != nil {
			return err
		}
		if err := tx.MoveToEscrow(ctx, senderID, amount); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return tx.MarkUnread(ctx, receiverID, t.ID)
	})
	if err != nil {
		return nil, err
	}

	observability.TransactionsCreated.Inc()
	s.notifier.TransactionEvent(ctx, events.EventTransactionPending, t, receiverID)
	s.log.Info("transaction created",
		zap.String("vtid", t.VTID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return t, nil
}

func (s *EscrowService) validateCreate(senderID, receiverID uuid.UUID, amount decimal.Decimal, descriptions []string, timeLimitHours int) error {
	if senderID == receiverID {
		return fmt.Errorf("%w: sender and receiver must differ", pkgerrors.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", pkgerrors.ErrInvalidArgument)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount must have at most 2 decimal places", pkgerrors.ErrInvalidArgument)
	}
	if amount.GreaterThan(s.cfg.MaxAmount) {
		return fmt.Errorf("%w: amount exceeds maximum %s", pkgerrors.ErrInvalidArgument, s.cfg.MaxAmount.StringFixed(2))
	}
	if timeLimitHours <= 0 || timeLimitHours > s.cfg.MaxTimeLimitHours {
		return fmt.Errorf("%w: time limit must be between 1 and %d hours", pkgerrors.ErrInvalidArgument, s.cfg.MaxTimeLimitHours)
	}
	if len(descriptions) == 0 {
		return fmt.Errorf("%w: at least one condition is required", pkgerrors.ErrInvalidArgument)
	}
	for _, d := range descriptions {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("%w: condition description must not be empty", pkgerrors.ErrInvalidArgument)
		}
	}
	return nil
}

func (s *EscrowService) AcceptTransaction(ctx context.Context, id, actorID uuid.UUID) (*models.Transaction, error) {
	now := s.now().UTC()
	var t *models.Transaction

	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		t, err = tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t.Status != models.StatusPending {
			return fmt.Errorf("%w: cannot accept a %s transaction", pkgerrors.ErrInvalidTransition, t.Status)
		}
		if actorID != t.ReceiverID {
			return fmt.Errorf("%w: only the receiver can accept", pkgerrors.ErrInvalidTransition)
		}
		if t.IsExpired(now) {
			return fmt.Errorf("%w: transaction deadline has passed", pkgerrors.ErrInvalidTransition)
		}

		if err := tx.UpdateStatus(ctx, id, models.StatusPending, models.StatusAccepted, now); err != nil {
			return err
		}
		t.Status = models.StatusAccepted
		t.AcceptedAt = &now
		return tx.MarkUnread(ctx, t.SenderID, id)
	})
	if err != nil {
		return nil, err
	}

	observability.StatusTransitions.WithLabelValues(models.StatusAccepted).Inc()
	s.notifier.TransactionEvent(ctx, events.EventTransactionAccepted, t, t.SenderID)
	return t, nil
}

// UpdateCondition marks one checklist item. The sender is the attestor:
// they released funds to escrow expecting delivery, so they confirm it.
// When the last open condition completes, funds release to the receiver
// in the same atomic unit as the condition write.
func (s *EscrowService) UpdateCondition(ctx context.Context, id uuid.UUID, index int, completed bool, actorID uuid.UUID) (*models.Transaction, error) {
	now := s.now().UTC()
	var t *models.Transaction
	var completedNow bool

	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		t, err = tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t.Status != models.StatusAccepted {
			return pkgerrors.ErrNotAcceptedState
		}
		if actorID != t.SenderID {
			return fmt.Errorf("%w: only the sender can update conditions", pkgerrors.ErrInvalidTransition)
		}
		if index < 0 || index >= len(t.Conditions) {
			return fmt.Errorf("%w: condition index out of range", pkgerrors.ErrInvalidArgument)
		}

		t.Conditions[index].Completed = completed
		if err := tx.UpdateConditions(ctx, id, t.Conditions); err != nil {
			return err
		}

		if !t.AllConditionsMet() {
			return tx.MarkUnread(ctx, t.ReceiverID, id)
		}

		if err := tx.ReleaseFromEscrow(ctx, t.SenderID, t.Amount); err != nil {
			return err
		}
		if err := tx.Credit(ctx, t.ReceiverID, t.Amount); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, id, models.StatusAccepted, models.StatusCompleted, now); err != nil {
			return err
		}
		t.Status = models.StatusCompleted
		t.CompletedAt = &now
		completedNow = true

		if err := tx.MarkUnread(ctx, t.SenderID, id); err != nil {
			return err
		}
		return tx.MarkUnread(ctx, t.ReceiverID, id)
	})
	if err != nil {
		return nil, err
	}

	if completedNow {
		observability.StatusTransitions.WithLabelValues(models.StatusCompleted).Inc()
		s.notifier.TransactionEvent(ctx, events.EventTransactionCompleted, t, t.SenderID, t.ReceiverID)
		s.log.Info("transaction completed", zap.String("vtid", t.VTID))
	} else {
		s.notifier.TransactionEvent(ctx, events.EventConditionUpdated, t, t.ReceiverID)
	}
	return t, nil
}

func (s *EscrowService) CancelTransaction(ctx context.Context, id, actorID uuid.UUID) (*models.Transaction, error) {
	t, _, err := s.cancel(ctx, id, actorID, false)
	return t, err
}

// cancel is the single cancellation path shared by manual cancels and the
// expiry sweeper. Cancelling an already-cancelled transaction is a quiet
// no-op so duplicate triggers never return funds twice.
func (s *EscrowService) cancel(ctx context.Context, id, actorID uuid.UUID, bySweeper bool) (*models.Transaction, bool, error) {
	now := s.now().UTC()
	var t *models.Transaction
	var changed bool

	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		var err error
		t, err = tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !bySweeper && actorID != t.SenderID && actorID != t.ReceiverID {
			return fmt.Errorf("%w: only a party to the transaction can cancel", pkgerrors.ErrInvalidTransition)
		}

		switch t.Status {
		case models.StatusCancelled:
			return nil
		case models.StatusCompleted:
			return fmt.Errorf("%w: cannot cancel a completed transaction", pkgerrors.ErrInvalidTransition)
		}

		// The deadline is re-measured on accept; a candidate picked up by
		// the sweep scan may have been accepted since, so re-check under
		// the row lock before force-cancelling.
		if bySweeper && !t.IsExpired(now) {
			return nil
		}

		if err := tx.ReleaseFromEscrow(ctx, t.SenderID, t.Amount); err != nil {
			return err
		}
		if err := tx.Credit(ctx, t.SenderID, t.Amount); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, id, t.Status, models.StatusCancelled, now); err != nil {
			return err
		}
		t.Status = models.StatusCancelled
		t.CancelledAt = &now
		changed = true

		if err := tx.MarkUnread(ctx, t.SenderID, id); err != nil {
			return err
		}
		return tx.MarkUnread(ctx, t.ReceiverID, id)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		observability.StatusTransitions.WithLabelValues(models.StatusCancelled).Inc()
		s.notifier.TransactionEvent(ctx, events.EventTransactionCancelled, t, t.SenderID, t.ReceiverID)
	}
	return t, changed, nil
}

// SweepExpired cancels every pending or accepted transaction past its
// deadline and returns how many it cancelled. A candidate that was resolved
// by a racing manual action is skipped, not an error.
func (s *EscrowService) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.store.ExpiredTransactionIDs(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		_, changed, err := s.cancel(ctx, id, uuid.Nil, true)
		if err != nil {
			s.log.Debug("sweep skipped transaction",
				zap.String("transaction_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if changed {
			count++
			observability.SweepCancelled.Inc()
		}
	}
	return count, nil
}

// GetTransaction returns a transaction to one of its parties and clears it
// from that viewer's unread list.
func (s *EscrowService) GetTransaction(ctx context.Context, id, viewerID uuid.UUID) (*models.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != t.SenderID && viewerID != t.ReceiverID {
		return nil, pkgerrors.ErrNotFound
	}
	if err := s.store.MarkRead(ctx, viewerID, id); err != nil {
		s.log.Warn("failed to clear unread marker", zap.Error(err))
	}
	return t, nil
}

func (s *EscrowService) ListForUser(ctx context.Context, userID uuid.UUID, f repositories.TransactionFilter) ([]models.Transaction, error) {
	return s.store.ListForUser(ctx, userID, f)
}
