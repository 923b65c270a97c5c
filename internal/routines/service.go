package routines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vivebien-dashboard/internal/store"
)

// Service provides routine reads and the status-update mutation.
type Service struct {
	store *store.Store
	clock func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, clock: time.Now}
}

var (
	ErrNotFound      = errors.New("routine not found")
	ErrInvalidStatus = fmt.Errorf("Invalid status. Must be one of: %s", strings.Join(ValidStatuses, ", "))
)

// ListByUser returns a patient's routines, newest first. Fail-open.
func (s *Service) ListByUser(ctx context.Context, userID string) []HealthRoutine {
	if !s.store.Enabled() || userID == "" {
		return []HealthRoutine{}
	}
	out, err := s.queryByUser(ctx, userID)
	if err != nil {
		s.store.Log().Error("routines query failed", "user_id", userID, "err", err)
		return []HealthRoutine{}
	}
	return out
}

// ListAll returns every routine with the owning patient's display name, for
// the routines overview page. Fail-open.
func (s *Service) ListAll(ctx context.Context) []RoutineListRow {
	if !s.store.Enabled() {
		return []RoutineListRow{}
	}
	out, err := s.queryAll(ctx)
	if err != nil {
		s.store.Log().Error("routines overview query failed", "err", err)
		return []RoutineListRow{}
	}
	return out
}

// UpdateStatus sets a routine's status after validating it against the
// enumerated set. ErrInvalidStatus for anything outside it, ErrNotFound when
// no row matched; the row is untouched in both cases.
func (s *Service) UpdateStatus(ctx context.Context, routineID, status string) (HealthRoutine, error) {
	if routineID == "" || status == "" {
		return HealthRoutine{}, ErrInvalidStatus
	}
	if !isValidStatus(status) {
		return HealthRoutine{}, ErrInvalidStatus
	}
	if !s.store.Enabled() {
		return HealthRoutine{}, store.ErrNotConfigured
	}
	return s.execUpdateStatus(ctx, routineID, status, s.clock().UTC())
}

func isValidStatus(status string) bool {
	for _, v := range ValidStatuses {
		if v == status {
			return true
		}
	}
	return false
}

func (s *Service) queryByUser(ctx context.Context, userID string) ([]HealthRoutine, error) {
	q := fmt.Sprintf(`
SELECT id, user_id, type, status, schedule, configuration, created_at, updated_at
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC
`, s.store.Table("health_routines"))

	rows, err := s.store.DB().QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]HealthRoutine, 0)
	for rows.Next() {
		var r HealthRoutine
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Status, &r.Schedule, &r.Configuration, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) queryAll(ctx context.Context) ([]RoutineListRow, error) {
	q := fmt.Sprintf(`
SELECT hr.id, hr.user_id, hr.type, hr.status, hr.schedule, hr.configuration, hr.created_at, hr.updated_at,
       COALESCE(u.preferred_name, u.name, 'Unknown') AS user_name
FROM %s hr
JOIN %s u ON u.id = hr.user_id
WHERE u.deleted_at IS NULL
ORDER BY hr.created_at DESC
`, s.store.Table("health_routines"), s.store.Table("users"))

	rows, err := s.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RoutineListRow, 0)
	for rows.Next() {
		var r RoutineListRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Type, &r.Status, &r.Schedule, &r.Configuration, &r.CreatedAt, &r.UpdatedAt, &r.UserName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) execUpdateStatus(ctx context.Context, routineID, status string, now time.Time) (HealthRoutine, error) {
	q := fmt.Sprintf(`
UPDATE %s SET status = $1, updated_at = $2 WHERE id = $3
RETURNING id, user_id, type, status, schedule, configuration, created_at, updated_at
`, s.store.Table("health_routines"))

	var r HealthRoutine
	err := s.store.DB().QueryRowContext(ctx, q, status, now, routineID).Scan(
		&r.ID, &r.UserID, &r.Type, &r.Status, &r.Schedule, &r.Configuration, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return HealthRoutine{}, ErrNotFound
		}
		return HealthRoutine{}, err
	}
	return r, nil
}
