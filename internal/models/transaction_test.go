package models

import (
	"testing"
	"time"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusCompleted, true},

		// Cancellation paths
		{StatusPending, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},

		// Invalid transitions
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusAccepted, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{"nonexistent", StatusAccepted, false},
		{StatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusCancelled} {
		if !IsTerminalStatus(status) {
			t.Errorf("expected %q to be terminal", status)
		}
		if len(ValidTransitions[status]) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, ValidTransitions[status])
		}
	}
	for _, status := range []string{StatusPending, StatusAccepted} {
		if IsTerminalStatus(status) {
			t.Errorf("expected %q not to be terminal", status)
		}
	}
	if IsTerminalStatus("nonexistent") {
		t.Error("unknown status must not be terminal")
	}
}

func TestDeadlineMeasuredFromCreation(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	txn := &Transaction{Status: StatusPending, TimeLimit: 24, CreatedAt: created}

	want := created.Add(24 * time.Hour)
	if got := txn.Deadline(); !got.Equal(want) {
		t.Errorf("Deadline() = %v, want %v", got, want)
	}

	if txn.IsExpired(want) {
		t.Error("transaction must not be expired exactly at the deadline")
	}
	if !txn.IsExpired(want.Add(time.Second)) {
		t.Error("transaction must be expired past the deadline")
	}
}

func TestDeadlineResetsOnAccept(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accepted := created.Add(20 * time.Hour)
	txn := &Transaction{
		Status:     StatusAccepted,
		TimeLimit:  24,
		CreatedAt:  created,
		AcceptedAt: &accepted,
	}

	// The window restarts at acceptance, so the original deadline passing
	// does not expire an accepted transaction.
	if txn.IsExpired(created.Add(25 * time.Hour)) {
		t.Error("accepted transaction expired against the pre-accept deadline")
	}

	want := accepted.Add(24 * time.Hour)
	if got := txn.Deadline(); !got.Equal(want) {
		t.Errorf("Deadline() = %v, want %v", got, want)
	}
}

func TestAllConditionsMet(t *testing.T) {
	tests := []struct {
		name       string
		conditions []Condition
		expected   bool
	}{
		{"empty list never completes", nil, false},
		{"single incomplete", []Condition{{Description: "ship"}}, false},
		{"single complete", []Condition{{Description: "ship", Completed: true}}, true},
		{"mixed", []Condition{
			{Description: "ship", Completed: true},
			{Description: "confirm delivery"},
		}, false},
		{"all complete", []Condition{
			{Description: "ship", Completed: true},
			{Description: "confirm delivery", Completed: true},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &Transaction{Conditions: tt.conditions}
			if got := txn.AllConditionsMet(); got != tt.expected {
				t.Errorf("AllConditionsMet() = %v, want %v", got, tt.expected)
			}
		})
	}
}
