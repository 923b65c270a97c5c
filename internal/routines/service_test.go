package routines

import (
	"context"
	"errors"
	"testing"

	"vivebien-dashboard/internal/store"
)

func TestUpdateStatus_RejectsInvalidStatus(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))

	for _, status := range []string{"invalid", "ACTIVE", "done", ""} {
		_, err := svc.UpdateStatus(context.Background(), "r1", status)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("status %q: expected ErrInvalidStatus, got %v", status, err)
		}
	}
}

func TestErrInvalidStatus_Message(t *testing.T) {
	want := "Invalid status. Must be one of: active, paused, completed"
	if got := ErrInvalidStatus.Error(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestUpdateStatus_ValidStatusWithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	_, err := svc.UpdateStatus(context.Background(), "r1", StatusPaused)
	if !errors.Is(err, store.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestReads_FailOpenWithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if got := svc.ListByUser(context.Background(), "u1"); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
	if got := svc.ListAll(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty overview, got %d", len(got))
	}
}
