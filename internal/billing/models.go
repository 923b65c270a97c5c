package billing

import "time"

// BillingAccount is the one-to-one billing record for a patient.
//
// Money invariant: credits_balance is the running sum of every
// credit_ledger.change_amount for the account, maintained by the mutation
// paths in this package. No code may change the balance without appending a
// ledger entry in the same transaction.
type BillingAccount struct {
	ID                      string     `json:"id" db:"id"`
	UserID                  string     `json:"user_id" db:"user_id"`
	SubscriptionStatus      string     `json:"subscription_status" db:"subscription_status"`
	SubscriptionPlan        *string    `json:"subscription_plan,omitempty" db:"subscription_plan"`
	CreditsBalance          int        `json:"credits_balance" db:"credits_balance"`
	CreditsMonthlyAllowance int        `json:"credits_monthly_allowance" db:"credits_monthly_allowance"`
	CreditsUsedThisPeriod   int        `json:"credits_used_this_period" db:"credits_used_this_period"`
	CreditsResetAt          *time.Time `json:"credits_reset_at,omitempty" db:"credits_reset_at"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
}

// Subscription lifecycle states. "none" is virtual: it is what GET reports
// when no billing account row exists.
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
	SubscriptionNone      = "none"
)

// PlanPremiumMonthly is the only plan the dashboard activates today.
const PlanPremiumMonthly = "premium_monthly"

// MonthlyAllowance is the credit grant attached to an activation.
const MonthlyAllowance = 50

// CreditLedgerEntry is an immutable append-only audit row. Entries are never
// updated or deleted.
type CreditLedgerEntry struct {
	ID               string    `json:"id" db:"id"`
	BillingAccountID string    `json:"billing_account_id" db:"billing_account_id"`
	UserID           string    `json:"user_id" db:"user_id"`
	ChangeAmount     int       `json:"change_amount" db:"change_amount"`
	ChangeType       string    `json:"change_type" db:"change_type"`
	BalanceAfter     int       `json:"balance_after" db:"balance_after"`
	Description      string    `json:"description,omitempty" db:"description"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Ledger change types. Keep stable; reporting groups on them.
const (
	ChangeSubscription = "subscription"
	ChangeAdminAdd     = "admin_add"
	ChangeAdminDeduct  = "admin_deduct"
	ChangeAdmin        = "admin"
	ChangeWorkAction   = "work_action"
)

// CreditAccount is the row shape of the credits overview page.
type CreditAccount struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	UserName           string    `json:"user_name"`
	UserPhone          string    `json:"user_phone"`
	CreditsBalance     int       `json:"credits_balance"`
	SubscriptionStatus string    `json:"subscription_status"`
	SubscriptionPlan   *string   `json:"subscription_plan"`
	CreatedAt          time.Time `json:"created_at"`
}

// CreditStats is the header block of the credits overview page.
type CreditStats struct {
	TotalUsers        int `json:"total_users"`
	TotalCredits      int `json:"total_credits"`
	ActiveSubscribers int `json:"active_subscribers"`
}

// SubscriptionDetail is the GET /api/subscription payload: the billing
// account joined with patient identity.
type SubscriptionDetail struct {
	BillingAccount
	Phone         string  `json:"phone"`
	PreferredName *string `json:"preferred_name,omitempty"`
	Name          *string `json:"name,omitempty"`
}
