package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQL for the billing tables. Table names carry the configured schema prefix;
// all values are bound parameters.

func (s *Service) accountForUpdate(ctx context.Context, tx *sql.Tx, userID string) (BillingAccount, error) {
	q := fmt.Sprintf(`
SELECT id, user_id, subscription_status, subscription_plan, credits_balance,
       credits_monthly_allowance, credits_used_this_period, credits_reset_at, created_at
FROM %s
WHERE user_id = $1
FOR UPDATE
`, s.store.Table("billing_accounts"))

	var a BillingAccount
	err := tx.QueryRowContext(ctx, q, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.SubscriptionStatus,
		&a.SubscriptionPlan,
		&a.CreditsBalance,
		&a.CreditsMonthlyAllowance,
		&a.CreditsUsedThisPeriod,
		&a.CreditsResetAt,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BillingAccount{}, ErrNoBillingAccount
		}
		return BillingAccount{}, err
	}
	return a, nil
}

func (s *Service) setBalance(ctx context.Context, tx *sql.Tx, accountID string, balance int, now time.Time) error {
	q := fmt.Sprintf(`UPDATE %s SET credits_balance = $1, updated_at = $2 WHERE id = $3`,
		s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, balance, now, accountID)
	return err
}

func (s *Service) incrementBalance(ctx context.Context, tx *sql.Tx, userID string, delta int) (int, error) {
	q := fmt.Sprintf(`UPDATE %s SET credits_balance = credits_balance + $1 WHERE user_id = $2 RETURNING credits_balance`,
		s.store.Table("billing_accounts"))
	var balance int
	if err := tx.QueryRowContext(ctx, q, delta, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Service) appendLedger(ctx context.Context, tx *sql.Tx, accountID, userID string, amount int, changeType string, balanceAfter int, description string, now time.Time) error {
	q := fmt.Sprintf(`
INSERT INTO %s (id, billing_account_id, user_id, change_amount, change_type, balance_after, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, s.store.Table("credit_ledger"))
	_, err := tx.ExecContext(ctx, q, uuid.NewString(), accountID, userID, amount, changeType, balanceAfter, description, now)
	return err
}

func (s *Service) reactivateAccount(ctx context.Context, tx *sql.Tx, userID string, resetAt, now time.Time) error {
	q := fmt.Sprintf(`
UPDATE %s
SET subscription_status = $2,
    subscription_plan = $3,
    credits_monthly_allowance = $4,
    credits_reset_at = $5,
    updated_at = $6
WHERE user_id = $1
`, s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, userID, SubscriptionActive, PlanPremiumMonthly, MonthlyAllowance, resetAt, now)
	return err
}

func (s *Service) insertAccount(ctx context.Context, tx *sql.Tx, userID string, resetAt, now time.Time) (string, error) {
	q := fmt.Sprintf(`
INSERT INTO %s (id, user_id, subscription_status, subscription_plan, credits_balance,
                credits_monthly_allowance, credits_used_this_period, credits_reset_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $8)
RETURNING id
`, s.store.Table("billing_accounts"))
	id := uuid.NewString()
	var out string
	err := tx.QueryRowContext(ctx, q, id, userID, SubscriptionActive, PlanPremiumMonthly, MonthlyAllowance, MonthlyAllowance, resetAt, now).Scan(&out)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *Service) setStatus(ctx context.Context, tx *sql.Tx, userID, status string, now time.Time) error {
	q := fmt.Sprintf(`UPDATE %s SET subscription_status = $2, updated_at = $3 WHERE user_id = $1`,
		s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, userID, status, now)
	return err
}

func (s *Service) resumeAccount(ctx context.Context, tx *sql.Tx, userID string, resetAt, now time.Time) error {
	q := fmt.Sprintf(`
UPDATE %s SET subscription_status = $2, credits_reset_at = $3, updated_at = $4 WHERE user_id = $1
`, s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, userID, SubscriptionActive, resetAt, now)
	return err
}

func (s *Service) cancelAccount(ctx context.Context, tx *sql.Tx, userID string, now time.Time) error {
	q := fmt.Sprintf(`
UPDATE %s SET subscription_status = $2, subscription_plan = NULL, updated_at = $3 WHERE user_id = $1
`, s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, userID, SubscriptionCancelled, now)
	return err
}

func (s *Service) setResetDate(ctx context.Context, tx *sql.Tx, userID string, resetAt, now time.Time) error {
	q := fmt.Sprintf(`UPDATE %s SET credits_reset_at = $2, updated_at = $3 WHERE user_id = $1`,
		s.store.Table("billing_accounts"))
	_, err := tx.ExecContext(ctx, q, userID, resetAt, now)
	return err
}

func (s *Service) querySubscriptionDetail(ctx context.Context, userID string) (SubscriptionDetail, bool, error) {
	q := fmt.Sprintf(`
SELECT ba.id, ba.user_id, ba.subscription_status, ba.subscription_plan, ba.credits_balance,
       ba.credits_monthly_allowance, ba.credits_used_this_period, ba.credits_reset_at, ba.created_at,
       u.phone, u.preferred_name, u.name
FROM %s ba
JOIN %s u ON u.id = ba.user_id
WHERE ba.user_id = $1
`, s.store.Table("billing_accounts"), s.store.Table("users"))

	var d SubscriptionDetail
	err := s.store.DB().QueryRowContext(ctx, q, userID).Scan(
		&d.ID,
		&d.UserID,
		&d.SubscriptionStatus,
		&d.SubscriptionPlan,
		&d.CreditsBalance,
		&d.CreditsMonthlyAllowance,
		&d.CreditsUsedThisPeriod,
		&d.CreditsResetAt,
		&d.CreatedAt,
		&d.Phone,
		&d.PreferredName,
		&d.Name,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubscriptionDetail{}, false, nil
		}
		return SubscriptionDetail{}, false, err
	}
	return d, true, nil
}

func (s *Service) queryCreditHistory(ctx context.Context, userID string, limit int) ([]CreditLedgerEntry, error) {
	q := fmt.Sprintf(`
SELECT cl.id, cl.billing_account_id, cl.user_id, cl.change_amount, cl.change_type,
       cl.balance_after, COALESCE(cl.description, ''), cl.created_at
FROM %s cl
JOIN %s ba ON cl.billing_account_id = ba.id
WHERE ba.user_id = $1
ORDER BY cl.created_at DESC
LIMIT $2
`, s.store.Table("credit_ledger"), s.store.Table("billing_accounts"))

	rows, err := s.store.DB().QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CreditLedgerEntry, 0)
	for rows.Next() {
		var e CreditLedgerEntry
		if err := rows.Scan(&e.ID, &e.BillingAccountID, &e.UserID, &e.ChangeAmount, &e.ChangeType, &e.BalanceAfter, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Service) queryAccounts(ctx context.Context) ([]CreditAccount, error) {
	q := fmt.Sprintf(`
SELECT ba.id, ba.user_id, COALESCE(u.preferred_name, u.name, 'Unknown'), u.phone,
       ba.credits_balance, ba.subscription_status, ba.subscription_plan, ba.created_at
FROM %s ba
JOIN %s u ON u.id = ba.user_id
WHERE u.deleted_at IS NULL
ORDER BY ba.created_at DESC
`, s.store.Table("billing_accounts"), s.store.Table("users"))

	rows, err := s.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CreditAccount, 0)
	for rows.Next() {
		var a CreditAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.UserPhone, &a.CreditsBalance, &a.SubscriptionStatus, &a.SubscriptionPlan, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Service) queryCreditStats(ctx context.Context) (CreditStats, error) {
	q := fmt.Sprintf(`
SELECT
  (SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL) AS total_users,
  (SELECT COALESCE(SUM(credits_balance), 0) FROM %s) AS total_credits,
  (SELECT COUNT(*) FROM %s WHERE subscription_status = 'active') AS active_subscribers
`, s.store.Table("users"), s.store.Table("billing_accounts"), s.store.Table("billing_accounts"))

	var st CreditStats
	if err := s.store.DB().QueryRowContext(ctx, q).Scan(&st.TotalUsers, &st.TotalCredits, &st.ActiveSubscribers); err != nil {
		return CreditStats{}, err
	}
	return st, nil
}
