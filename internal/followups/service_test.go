package followups

import (
	"context"
	"testing"
	"time"

	"vivebien-dashboard/internal/store"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if !IsOverdue(now, StatusPending, past) {
		t.Fatalf("pending and past due should be overdue")
	}
	if IsOverdue(now, StatusPending, future) {
		t.Fatalf("pending but future should not be overdue")
	}
	// Overdue is derived only for pending tasks; scheduled and completed
	// tasks never count, however old.
	if IsOverdue(now, StatusScheduled, past) {
		t.Fatalf("scheduled should not be overdue")
	}
	if IsOverdue(now, StatusCompleted, past) {
		t.Fatalf("completed should not be overdue")
	}
}

func TestReads_FailOpenWithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if got := svc.Pending(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty pending list, got %d", len(got))
	}
	if got := svc.Overdue(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty overdue list, got %d", len(got))
	}
}
