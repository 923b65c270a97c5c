package routines

import (
	"encoding/json"
	"time"
)

// HealthRoutine is a per-patient scheduled wellness program. Status
// transitions are operator-triggered only; nothing in this layer advances a
// routine automatically.
type HealthRoutine struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Type          string          `json:"type" db:"type"`
	Status        string          `json:"status" db:"status"`
	Schedule      json.RawMessage `json:"schedule,omitempty" db:"schedule"`
	Configuration json.RawMessage `json:"configuration,omitempty" db:"configuration"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// ValidStatuses is the full enumerated set, in the order operator-facing
// error messages list it.
var ValidStatuses = []string{StatusActive, StatusPaused, StatusCompleted}

// RoutineListRow is one line of the routines overview page, joined with the
// patient's display name.
type RoutineListRow struct {
	HealthRoutine
	UserName string `json:"user_name"`
}
