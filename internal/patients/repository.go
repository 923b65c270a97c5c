package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Service) queryRoster(ctx context.Context) ([]RosterRow, error) {
	q := fmt.Sprintf(`
SELECT
  u.id, u.phone, u.name, u.preferred_name, u.preferred_language, u.status, u.created_at,
  ba.credits_balance, ba.credits_used_this_period, ba.subscription_status,
  cs.current_topic, cs.emotional_state, COALESCE(cs.needs_human, false), cs.last_message_at,
  (SELECT COUNT(*) FROM %s WHERE user_id = u.id) AS message_count,
  (SELECT COUNT(*) FROM %s WHERE user_id = u.id) AS routine_count
FROM %s u
LEFT JOIN %s ba ON ba.user_id = u.id
LEFT JOIN %s cs ON cs.user_id = u.id
WHERE u.deleted_at IS NULL
ORDER BY u.created_at DESC
`,
		s.store.Table("messages"),
		s.store.Table("health_routines"),
		s.store.Table("users"),
		s.store.Table("billing_accounts"),
		s.store.Table("conversation_state"),
	)

	rows, err := s.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RosterRow, 0)
	for rows.Next() {
		var r RosterRow
		if err := rows.Scan(
			&r.ID, &r.Phone, &r.Name, &r.PreferredName, &r.PreferredLanguage, &r.Status, &r.CreatedAt,
			&r.CreditsBalance, &r.CreditsUsedPeriod, &r.SubscriptionStatus,
			&r.CurrentTopic, &r.EmotionalState, &r.NeedsHuman, &r.LastMessageAt,
			&r.MessageCount, &r.RoutineCount,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) queryDetail(ctx context.Context, id string) (Detail, bool, error) {
	q := fmt.Sprintf(`
SELECT
  u.id, u.phone, u.name, u.preferred_name, u.preferred_language, u.status, u.created_at,
  ba.credits_balance, ba.credits_used_this_period, ba.subscription_status,
  ba.credits_monthly_allowance, ba.subscription_plan,
  ba.created_at AS subscription_started_at, ba.credits_reset_at AS next_billing_date,
  cs.current_topic, cs.emotional_state, COALESCE(cs.needs_human, false), cs.last_message_at, cs.handoff_reason,
  (SELECT COUNT(*) FROM %s WHERE user_id = u.id) AS message_count,
  (SELECT COUNT(*) FROM %s WHERE user_id = u.id) AS routine_count
FROM %s u
LEFT JOIN %s ba ON ba.user_id = u.id
LEFT JOIN %s cs ON cs.user_id = u.id
WHERE u.id = $1
`,
		s.store.Table("messages"),
		s.store.Table("health_routines"),
		s.store.Table("users"),
		s.store.Table("billing_accounts"),
		s.store.Table("conversation_state"),
	)

	var d Detail
	var subStarted, nextBilling sql.NullTime
	err := s.store.DB().QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Phone, &d.Name, &d.PreferredName, &d.PreferredLanguage, &d.Status, &d.CreatedAt,
		&d.CreditsBalance, &d.CreditsUsedPeriod, &d.SubscriptionStatus,
		&d.CreditsMonthlyAllowance, &d.SubscriptionPlan,
		&subStarted, &nextBilling,
		&d.CurrentTopic, &d.EmotionalState, &d.NeedsHuman, &d.LastMessageAt, &d.HandoffReason,
		&d.MessageCount, &d.RoutineCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, false, nil
		}
		return Detail{}, false, err
	}
	if subStarted.Valid {
		d.SubscriptionStartedAt = &subStarted.Time
	}
	if nextBilling.Valid {
		d.NextBillingDate = &nextBilling.Time
	}
	return d, true, nil
}

func (s *Service) queryMessages(ctx context.Context, userID string, limit int) ([]Message, error) {
	q := fmt.Sprintf(`
SELECT id, user_id, role, content, channel, metadata, created_at
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, s.store.Table("messages"))

	rows, err := s.store.DB().QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.Channel, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Service) queryVaultSummary(ctx context.Context, userID string) (VaultSummary, error) {
	q := fmt.Sprintf(`
SELECT
  (SELECT COUNT(*) FROM %s WHERE user_id = $1) AS conditions_count,
  (SELECT COUNT(*) FROM %s WHERE user_id = $1) AS medications_count,
  (SELECT COUNT(*) FROM %s WHERE user_id = $1) AS allergies_count,
  (SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1)) AS has_profile
`,
		s.store.Table("vault_conditions"),
		s.store.Table("vault_medications"),
		s.store.Table("vault_allergies"),
		s.store.Table("vault_profiles"),
	)

	var v VaultSummary
	if err := s.store.DB().QueryRowContext(ctx, q, userID).Scan(&v.ConditionsCount, &v.MedicationsCount, &v.AllergiesCount, &v.HasProfile); err != nil {
		return VaultSummary{}, err
	}
	return v, nil
}

func (s *Service) execSoftDelete(ctx context.Context, userID string, now time.Time) error {
	q := fmt.Sprintf(`
UPDATE %s SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL
`, s.store.Table("users"))

	res, err := s.store.DB().ExecContext(ctx, q, userID, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
