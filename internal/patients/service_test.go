package patients

import (
	"context"
	"testing"
	"time"

	"vivebien-dashboard/internal/store"
)

func TestActivityStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := ActivityStatus(now, nil); got != "inactive" {
		t.Fatalf("expected inactive for nil timestamp, got %q", got)
	}

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Minute, "active"},
		{5 * time.Hour, "recent"},
		{48 * time.Hour, "idle"},
		{100 * time.Hour, "inactive"},
	}
	for _, c := range cases {
		ts := now.Add(-c.ago)
		if got := ActivityStatus(now, &ts); got != c.want {
			t.Fatalf("for %v ago: expected %q, got %q", c.ago, c.want, got)
		}
	}
}

func TestSortRoster_NeedsHumanFirstThenDistress(t *testing.T) {
	calm := "calm"
	anxious := "anxious"
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	rows := []RosterRow{
		{ID: "recent", EmotionalState: &calm, LastMessageAt: &t2},
		{ID: "older", EmotionalState: &calm, LastMessageAt: &t1},
		{ID: "distress", EmotionalState: &anxious, LastMessageAt: &t1},
		{ID: "escalated", NeedsHuman: true, LastMessageAt: &t1},
	}
	SortRoster(rows)

	want := []string{"escalated", "distress", "recent", "older"}
	for i, id := range want {
		if rows[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, rows[i].ID)
		}
	}
}

func TestSortRoster_NilTimestampsSortLast(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := []RosterRow{
		{ID: "silent"},
		{ID: "talked", LastMessageAt: &ts},
	}
	SortRoster(rows)
	if rows[0].ID != "talked" {
		t.Fatalf("expected patient with messages first, got %q", rows[0].ID)
	}
}

func TestIsDistress(t *testing.T) {
	for _, state := range []string{"anxious", "frustrated", "worried"} {
		if !IsDistress(state) {
			t.Fatalf("expected %q to be distress", state)
		}
	}
	for _, state := range []string{"calm", "grateful", "unknown", ""} {
		if IsDistress(state) {
			t.Fatalf("expected %q not to be distress", state)
		}
	}
}

func TestReads_FailOpenWithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	ctx := context.Background()

	if got := svc.Roster(ctx); len(got) != 0 {
		t.Fatalf("expected empty roster, got %d", len(got))
	}
	if _, ok := svc.ByID(ctx, "u1"); ok {
		t.Fatalf("expected no detail without database")
	}
	if got := svc.Messages(ctx, "u1", 100); len(got) != 0 {
		t.Fatalf("expected empty messages, got %d", len(got))
	}
	if got := svc.VaultSummary(ctx, "u1"); got != (VaultSummary{}) {
		t.Fatalf("expected zero vault summary, got %+v", got)
	}
}

func TestSoftDelete_WithoutDatabase(t *testing.T) {
	svc := NewService(store.New(nil, "", nil))
	if err := svc.SoftDelete(context.Background(), "u1"); err != store.ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := svc.SoftDelete(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
