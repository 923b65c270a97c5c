package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"vivebien-dashboard/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMockRepo returns a repo over a mocked pool and a pointer that receives
// the SQL text of each executed query, so tests can pin down the query shape
// and not just the scanned values.
func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock, *string) {
	t.Helper()
	var captured string
	matcher := sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
		captured = actualSQL
		return nil
	})
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGRepo(store.New(db, "", nil), "claude_api"), mock, &captured
}

func TestSystemHealth_QueryShapeAndMapping(t *testing.T) {
	repo, mock, captured := newMockRepo(t)

	mock.ExpectQuery("").WithArgs("claude_api").WillReturnRows(
		sqlmock.NewRows([]string{
			"messages", "ai_calls", "avg_ms", "errors", "breaker", "credits", "active",
		}).AddRow(120, 80, 340, 3, "half_open", 42, 5))

	out, err := repo.SystemHealth(context.Background())
	if err != nil {
		t.Fatalf("SystemHealth: %v", err)
	}
	if out.TotalMessages24h != 120 || out.TotalAICalls24h != 80 || out.AvgResponseTimeMs != 340 {
		t.Fatalf("volume counters = %d/%d/%d", out.TotalMessages24h, out.TotalAICalls24h, out.AvgResponseTimeMs)
	}
	if out.ErrorCount24h != 3 {
		t.Fatalf("ErrorCount24h = %d, want 3", out.ErrorCount24h)
	}
	if out.CircuitBreakerStatus != "half_open" {
		t.Fatalf("CircuitBreakerStatus = %q", out.CircuitBreakerStatus)
	}
	if out.CreditsUsed24h != 42 || out.ActiveConversations != 5 {
		t.Fatalf("credits/active = %d/%d", out.CreditsUsed24h, out.ActiveConversations)
	}

	// The counters must read from the upstream pipeline's tables and windows:
	// execution_logs for errors, circuit_breakers keyed by service_name, and
	// a 1 hour window for active conversations.
	for _, frag := range []string{
		"FROM execution_logs",
		"status = 'error'",
		"service_name = $1",
		"SUM(ABS(change_amount))",
		"change_type = 'work_action'",
		"last_message_at > NOW() - INTERVAL '1 hour'",
	} {
		if !strings.Contains(*captured, frag) {
			t.Fatalf("health query missing %q:\n%s", frag, *captured)
		}
	}
}

func TestUserActivity_KeepsPausedPatients(t *testing.T) {
	repo, mock, captured := newMockRepo(t)

	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("").WillReturnRows(
		sqlmock.NewRows([]string{
			"id", "preferred_name", "name", "phone", "created_at",
			"last_message_at", "emotional_state", "message_count",
		}).
			AddRow("u1", "Ana", "Ana Torres", "+5211111111", now.AddDate(0, -2, 0), now, "stable", 40).
			AddRow("u2", nil, "Luis Vega", "+5212222222", now.AddDate(0, -1, 0), nil, "distressed", 2))

	out, err := repo.UserActivity(context.Background())
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].ID != "u2" || out[1].LastMessageAt != nil || out[1].PreferredName != nil {
		t.Fatalf("unexpected second row: %+v", out[1])
	}

	// The roster feeds the follow-up ranking, which must see paused and
	// blocked patients too. Only soft-deleted users drop out.
	if strings.Contains(*captured, "u.status") {
		t.Fatalf("activity query filters on user status:\n%s", *captured)
	}
	if !strings.Contains(*captured, "u.deleted_at IS NULL") {
		t.Fatalf("activity query lost the soft-delete filter:\n%s", *captured)
	}
}
