package notes

import "time"

// OperatorNote is an immutable, append-only annotation on a patient.
//
// Invariants:
// - Notes are never updated or deleted.
// - created_by attributes the note to the operator who wrote it.
type OperatorNote struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	SessionID *string   `json:"session_id,omitempty" db:"session_id"`
	Note      string    `json:"note" db:"note"`
	Tags      []string  `json:"tags,omitempty" db:"tags"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
