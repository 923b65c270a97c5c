package followups

import (
	"context"
	"fmt"
	"time"

	"vivebien-dashboard/internal/store"
)

// Followup is a scheduled outreach task, joined with the patient's display
// name for list pages. "Overdue" is derived at read time from scheduled_for;
// it is never stored.
type Followup struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Type         string    `json:"type" db:"type"`
	ScheduledFor time.Time `json:"scheduled_for" db:"scheduled_for"`
	Status       string    `json:"status" db:"status"`
	Priority     string    `json:"priority" db:"priority"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UserName     string    `json:"user_name"`
	UserPhone    *string   `json:"user_phone,omitempty"`
}

const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// Service lists follow-up tasks. Reads fail open.
type Service struct {
	store *store.Store
	clock func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, clock: time.Now}
}

// Pending lists open follow-ups (pending or scheduled), soonest first.
func (s *Service) Pending(ctx context.Context) []Followup {
	if !s.store.Enabled() {
		return []Followup{}
	}
	where := fmt.Sprintf("f.status IN ('%s', '%s')", StatusPending, StatusScheduled)
	out, err := s.query(ctx, where, nil)
	if err != nil {
		s.store.Log().Error("pending followups query failed", "err", err)
		return []Followup{}
	}
	return out
}

// Overdue lists pending follow-ups whose scheduled time has passed. Derived
// from (now, scheduled_for) on every call.
func (s *Service) Overdue(ctx context.Context) []Followup {
	if !s.store.Enabled() {
		return []Followup{}
	}
	where := fmt.Sprintf("f.status = '%s' AND f.scheduled_for < $1", StatusPending)
	out, err := s.query(ctx, where, []any{s.clock().UTC()})
	if err != nil {
		s.store.Log().Error("overdue followups query failed", "err", err)
		return []Followup{}
	}
	return out
}

// IsOverdue is the derived-state rule: pending and past due.
func IsOverdue(now time.Time, status string, scheduledFor time.Time) bool {
	return status == StatusPending && scheduledFor.Before(now)
}

func (s *Service) query(ctx context.Context, where string, args []any) ([]Followup, error) {
	q := fmt.Sprintf(`
SELECT f.id, f.user_id, f.type, f.scheduled_for, f.status, f.priority, f.notes, f.created_at,
       COALESCE(u.preferred_name, u.name, 'Unknown') AS user_name,
       u.phone AS user_phone
FROM %s f
LEFT JOIN %s u ON f.user_id = u.id
WHERE %s
ORDER BY f.scheduled_for ASC
LIMIT 20
`, s.store.Table("followups"), s.store.Table("users"), where)

	rows, err := s.store.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Followup, 0)
	for rows.Next() {
		var f Followup
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.ScheduledFor, &f.Status, &f.Priority, &f.Notes, &f.CreatedAt, &f.UserName, &f.UserPhone); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
