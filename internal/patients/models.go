package patients

import (
	"encoding/json"
	"time"
)

// User is the patient identity record. Created by the upstream intake flow;
// the dashboard only ever soft-deletes it.
type User struct {
	ID                string     `json:"id" db:"id"`
	Phone             string     `json:"phone" db:"phone"`
	Name              *string    `json:"name,omitempty" db:"name"`
	PreferredName     *string    `json:"preferred_name,omitempty" db:"preferred_name"`
	PreferredLanguage string     `json:"preferred_language" db:"preferred_language"`
	Status            string     `json:"status" db:"status"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Lifecycle statuses set by upstream intake.
const (
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusBlocked = "blocked"
)

// RosterRow is one line of the patient roster: the user joined with billing
// and conversation state plus per-user counts.
type RosterRow struct {
	ID                 string     `json:"id"`
	Phone              string     `json:"phone"`
	Name               *string    `json:"name,omitempty"`
	PreferredName      *string    `json:"preferred_name,omitempty"`
	PreferredLanguage  string     `json:"preferred_language"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	CreditsBalance     *int       `json:"credits_balance,omitempty"`
	CreditsUsedPeriod  *int       `json:"credits_used_this_period,omitempty"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"`
	CurrentTopic       *string    `json:"current_topic,omitempty"`
	EmotionalState     *string    `json:"emotional_state,omitempty"`
	NeedsHuman         bool       `json:"needs_human"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	MessageCount       int        `json:"message_count"`
	RoutineCount       int        `json:"routine_count"`
}

// Detail extends the roster shape with the columns the patient page shows.
type Detail struct {
	RosterRow
	CreditsMonthlyAllowance *int       `json:"credits_monthly_allowance,omitempty"`
	SubscriptionPlan        *string    `json:"subscription_plan,omitempty"`
	SubscriptionStartedAt   *time.Time `json:"subscription_started_at,omitempty"`
	NextBillingDate         *time.Time `json:"next_billing_date,omitempty"`
	HandoffReason           *string    `json:"handoff_reason,omitempty"`
}

// Message is one append-only conversation log row. Never mutated here.
type Message struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Role      string          `json:"role" db:"role"`
	Content   string          `json:"content" db:"content"`
	Channel   string          `json:"channel" db:"channel"`
	Metadata  json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// VaultSummary counts the health-vault records attached to a patient.
type VaultSummary struct {
	ConditionsCount  int  `json:"conditions_count"`
	MedicationsCount int  `json:"medications_count"`
	AllergiesCount   int  `json:"allergies_count"`
	HasProfile       bool `json:"has_profile"`
}
