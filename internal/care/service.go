package care

import (
	"context"
	"fmt"
	"time"

	"vivebien-dashboard/internal/store"
)

// Appointment is a scheduled visit with an external care provider.
type Appointment struct {
	ID           string    `json:"id" db:"id"`
	UserEmail    string    `json:"user_email" db:"user_email"`
	ProviderID   *string   `json:"provider_id,omitempty" db:"provider_id"`
	ScheduledAt  time.Time `json:"scheduled_at" db:"scheduled_at"`
	Status       string    `json:"status" db:"status"`
	Type         string    `json:"type" db:"type"`
	Reason       *string   `json:"reason,omitempty" db:"reason"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	MeetingLink  *string   `json:"meeting_link,omitempty" db:"meeting_link"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ProviderName *string   `json:"provider_name,omitempty"`
}

// Provider is an external clinician or clinic the service refers patients to.
type Provider struct {
	ID               string  `json:"id" db:"id"`
	Name             string  `json:"name" db:"name"`
	Specialty        *string `json:"specialty,omitempty" db:"specialty"`
	Clinic           *string `json:"clinic,omitempty" db:"clinic"`
	Phone            *string `json:"phone,omitempty" db:"phone"`
	Email            *string `json:"email,omitempty" db:"email"`
	Status           string  `json:"status" db:"status"`
	AppointmentCount int     `json:"appointment_count"`
}

// Service reads appointment and provider rows for the dashboard. Fail-open.
type Service struct {
	store *store.Store
	clock func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, clock: time.Now}
}

// UpcomingAppointments lists the next visits that are not cancelled.
func (s *Service) UpcomingAppointments(ctx context.Context) []Appointment {
	if !s.store.Enabled() {
		return []Appointment{}
	}
	out, err := s.queryUpcoming(ctx, s.clock().UTC())
	if err != nil {
		s.store.Log().Error("appointments query failed", "err", err)
		return []Appointment{}
	}
	return out
}

// Providers lists active providers with their appointment counts.
func (s *Service) Providers(ctx context.Context) []Provider {
	if !s.store.Enabled() {
		return []Provider{}
	}
	out, err := s.queryProviders(ctx)
	if err != nil {
		s.store.Log().Error("providers query failed", "err", err)
		return []Provider{}
	}
	return out
}

func (s *Service) queryUpcoming(ctx context.Context, now time.Time) ([]Appointment, error) {
	q := fmt.Sprintf(`
SELECT a.id, a.user_email, a.provider_id, a.scheduled_at, a.status, a.type,
       a.reason, a.notes, a.meeting_link, a.created_at,
       p.name AS provider_name
FROM %s a
LEFT JOIN %s p ON a.provider_id = p.id::text
WHERE a.scheduled_at >= $1 AND a.status != 'cancelled'
ORDER BY a.scheduled_at ASC
LIMIT 10
`, s.store.Table("appointments"), s.store.Table("providers"))

	rows, err := s.store.DB().QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.UserEmail, &a.ProviderID, &a.ScheduledAt, &a.Status, &a.Type,
			&a.Reason, &a.Notes, &a.MeetingLink, &a.CreatedAt, &a.ProviderName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Service) queryProviders(ctx context.Context) ([]Provider, error) {
	q := fmt.Sprintf(`
SELECT p.id, p.name, p.specialty, p.clinic, p.phone, p.email, p.status,
       (SELECT COUNT(*) FROM %s WHERE provider_id = p.id::text) AS appointment_count
FROM %s p
WHERE p.status = 'active'
ORDER BY p.name
`, s.store.Table("appointments"), s.store.Table("providers"))

	rows, err := s.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Provider, 0)
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.Clinic, &p.Phone, &p.Email, &p.Status, &p.AppointmentCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
