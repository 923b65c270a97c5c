package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"vivebien-dashboard/internal/store"
)

func TestChangeTypeForAdjustment(t *testing.T) {
	if got := changeTypeForAdjustment(10); got != ChangeAdminAdd {
		t.Fatalf("expected admin_add, got %q", got)
	}
	if got := changeTypeForAdjustment(-10); got != ChangeAdminDeduct {
		t.Fatalf("expected admin_deduct, got %q", got)
	}
	// Zero-amount adjustments record as deductions; the ledger row still
	// carries the unchanged balance_after.
	if got := changeTypeForAdjustment(0); got != ChangeAdminDeduct {
		t.Fatalf("expected admin_deduct for zero, got %q", got)
	}
}

func TestExtendResetDate_FromExistingDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	got := extendResetDate(&current, now, 30)
	want := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtendResetDate_NoExistingDateStartsFromNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := extendResetDate(nil, now, 7)
	want := now.AddDate(0, 0, 7)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAdjustCredits_RequiresArguments(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if _, err := svc.AdjustCredits(context.Background(), "", 10, "test"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.AdjustCredits(context.Background(), "u1", 10, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAdjustCredits_WithoutDatabaseFailsClosed(t *testing.T) {
	// Reads fail open; mutations must report the missing database instead.
	svc := NewService(store.New(nil, "", nil))
	_, err := svc.AdjustCredits(context.Background(), "u1", 10, "test")
	if !errors.Is(err, store.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSubscription_RejectsUnknownAction(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if _, err := svc.Subscription(context.Background(), SubscriptionRequest{UserID: "u1", Action: "reactivate"}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if _, err := svc.Subscription(context.Background(), SubscriptionRequest{UserID: "", Action: "pause"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreditHistory_FailsOpenWithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if got := svc.CreditHistory(context.Background(), "u1"); len(got) != 0 {
		t.Fatalf("expected empty history, got %d rows", len(got))
	}
	accounts, stats := svc.AccountsOverview(context.Background())
	if len(accounts) != 0 || stats.TotalUsers != 0 {
		t.Fatalf("expected empty overview, got %d accounts, %+v", len(accounts), stats)
	}
}
