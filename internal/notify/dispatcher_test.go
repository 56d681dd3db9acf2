package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultpay/backend/internal/events"
	"go.uber.org/zap"
)

type fakeLimiter struct {
	mu      sync.Mutex
	blocked map[string]bool
	calls   int
}

func (f *fakeLimiter) Allow(_ context.Context, recipient uuid.UUID, kind string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return !f.blocked[recipient.String()+":"+kind]
}

type fakeDeliverer struct {
	mu         sync.Mutex
	delivered  []uuid.UUID
	failBefore int // fail the first N deliveries
}

func (f *fakeDeliverer) Deliver(_ context.Context, recipient uuid.UUID, _ events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.delivered) < f.failBefore {
		f.delivered = append(f.delivered, recipient)
		return errors.New("delivery failed")
	}
	f.delivered = append(f.delivered, recipient)
	return nil
}

func eventFor(kind string, recipients ...uuid.UUID) events.Event {
	ids := make([]string, len(recipients))
	for i, r := range recipients {
		ids[i] = r.String()
	}
	return events.Event{
		Type:    kind,
		Payload: map[string]any{"recipient_ids": ids},
	}
}

func TestDispatcherDeliversToEachRecipient(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	limiter := &fakeLimiter{blocked: map[string]bool{}}
	deliverer := &fakeDeliverer{}
	d := NewDispatcher(limiter, deliverer, zap.NewNop())

	d.Handle(context.Background(), eventFor("transaction_cancelled", alice, bob))

	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, deliverer.delivered)
	assert.Equal(t, 2, limiter.calls)
}

func TestDispatcherCooldownSuppresses(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	limiter := &fakeLimiter{blocked: map[string]bool{
		alice.String() + ":transaction_accepted": true,
	}}
	deliverer := &fakeDeliverer{}
	d := NewDispatcher(limiter, deliverer, zap.NewNop())

	d.Handle(context.Background(), eventFor("transaction_accepted", alice, bob))

	// Alice is inside the cooldown window; only Bob gets the delivery.
	assert.Equal(t, []uuid.UUID{bob}, deliverer.delivered)
}

func TestDispatcherDeliveryFailureDoesNotStopOthers(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	limiter := &fakeLimiter{blocked: map[string]bool{}}
	deliverer := &fakeDeliverer{failBefore: 1}
	d := NewDispatcher(limiter, deliverer, zap.NewNop())

	d.Handle(context.Background(), eventFor("transaction_completed", alice, bob))

	assert.Len(t, deliverer.delivered, 2)
}

func TestRecipientIDs(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	t.Run("string slice", func(t *testing.T) {
		ids := RecipientIDs(eventFor("transaction_pending", alice, bob))
		assert.Equal(t, []uuid.UUID{alice, bob}, ids)
	})

	t.Run("decoded json slice", func(t *testing.T) {
		// After a round trip through JSON the list arrives as []any.
		event := events.Event{
			Type: "transaction_pending",
			Payload: map[string]any{
				"recipient_ids": []any{alice.String(), bob.String()},
			},
		}
		ids := RecipientIDs(event)
		assert.Equal(t, []uuid.UUID{alice, bob}, ids)
	})

	t.Run("garbage entries skipped", func(t *testing.T) {
		event := events.Event{
			Type: "transaction_pending",
			Payload: map[string]any{
				"recipient_ids": []any{alice.String(), "not-a-uuid", 42},
			},
		}
		ids := RecipientIDs(event)
		require.Len(t, ids, 1)
		assert.Equal(t, alice, ids[0])
	})

	t.Run("missing payload key", func(t *testing.T) {
		assert.Nil(t, RecipientIDs(events.Event{Type: "transaction_pending", Payload: map[string]any{}}))
	})
}
