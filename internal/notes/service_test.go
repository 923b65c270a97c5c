package notes

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdd_FillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	now := time.Unix(1700000000, 0).UTC()
	svc.clock = func() time.Time { return now }

	n, err := svc.Add(context.Background(), "u1", "called patient, no answer", "operator@clinic", []string{"outreach"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !n.CreatedAt.Equal(now) {
		t.Fatalf("expected clock timestamp, got %v", n.CreatedAt)
	}
	if len(repo.Notes) != 1 {
		t.Fatalf("expected 1 stored note, got %d", len(repo.Notes))
	}
}

func TestAdd_RequiresFields(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	cases := []struct{ userID, note, createdBy string }{
		{"", "n", "op"},
		{"u1", "", "op"},
		{"u1", "n", ""},
	}
	for _, c := range cases {
		if _, err := svc.Add(context.Background(), c.userID, c.note, c.createdBy, nil); !errors.Is(err, ErrInvalidNote) {
			t.Fatalf("expected ErrInvalidNote for %+v, got %v", c, err)
		}
	}
}

func TestListByUser_NewestFirstAndIsolated(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Unix(1700000000, 0).UTC()
	repo.Notes = []OperatorNote{
		{ID: "a", UserID: "u1", Note: "first", CreatedBy: "op", CreatedAt: base},
		{ID: "b", UserID: "u1", Note: "second", CreatedBy: "op", CreatedAt: base.Add(time.Hour)},
		{ID: "c", UserID: "u2", Note: "other patient", CreatedBy: "op", CreatedAt: base},
	}

	got := svc.ListByUser(context.Background(), "u1")
	if len(got) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got))
	}
	if got[0].ID != "b" {
		t.Fatalf("expected newest note first, got %q", got[0].ID)
	}
}

func TestListByUser_FailsOpen(t *testing.T) {
	repo := NewMemoryRepo()
	repo.ListErr = errors.New("connection refused")
	svc := NewService(repo)

	if got := svc.ListByUser(context.Background(), "u1"); len(got) != 0 {
		t.Fatalf("expected empty list on repo failure, got %d", len(got))
	}
}
