package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vivebien-dashboard/internal/store"
)

// PGRepo answers reporting queries from Postgres. Every query is read-only
// and grouped in SQL; the service layer zero-fills, ranks and merges.
//
// When the store has no pool attached, every method returns an empty result
// and no error, so the fail-open reads stay quiet instead of logging a
// failure per chart.
type PGRepo struct {
	store          *store.Store
	breakerService string
}

func NewPGRepo(st *store.Store, breakerService string) *PGRepo {
	return &PGRepo{store: st, breakerService: breakerService}
}

func (r *PGRepo) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	if !r.store.Enabled() {
		return out, nil
	}
	q := fmt.Sprintf(`
SELECT
  (SELECT COUNT(*) FROM %[1]s WHERE deleted_at IS NULL),
  (SELECT COUNT(*) FROM %[1]s WHERE deleted_at IS NULL AND status = 'active'),
  (SELECT COALESCE(SUM(credits_balance), 0) FROM %[2]s),
  (SELECT COUNT(*) FROM %[3]s WHERE status = 'active'),
  (SELECT COUNT(*) FROM %[4]s WHERE needs_human = true)
`, r.store.Table("users"), r.store.Table("billing_accounts"),
		r.store.Table("health_routines"), r.store.Table("conversation_state"))

	err := r.store.DB().QueryRowContext(ctx, q).Scan(
		&out.TotalUsers, &out.ActiveUsers, &out.TotalCredits, &out.ActiveRoutines, &out.NeedsHuman)
	return out, err
}

func (r *PGRepo) DailyMessageCounts(ctx context.Context, from time.Time) ([]MessageDayRow, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
       COUNT(*) FILTER (WHERE role = 'user'),
       COUNT(*) FILTER (WHERE role = 'assistant'),
       COUNT(*)
FROM %s
WHERE created_at >= $1
GROUP BY day
ORDER BY day
`, r.store.Table("messages"))

	rows, err := r.store.DB().QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MessageDayRow, 0)
	for rows.Next() {
		var m MessageDayRow
		if err := rows.Scan(&m.Day, &m.UserMessages, &m.AssistantMessages, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) DailyUserSignups(ctx context.Context, from time.Time) ([]DayCount, error) {
	q := fmt.Sprintf(`
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
FROM %s
WHERE created_at >= $1 AND deleted_at IS NULL
GROUP BY day
ORDER BY day
`, r.store.Table("users"))
	return r.dayCounts(ctx, q, from)
}

func (r *PGRepo) CountUsersBefore(ctx context.Context, day time.Time) (int, error) {
	if !r.store.Enabled() {
		return 0, nil
	}
	q := fmt.Sprintf(`
SELECT COUNT(*) FROM %s WHERE created_at < $1 AND deleted_at IS NULL
`, r.store.Table("users"))

	var n int
	err := r.store.DB().QueryRowContext(ctx, q, day).Scan(&n)
	return n, err
}

func (r *PGRepo) DailyCreditFlows(ctx context.Context, from time.Time) ([]CreditDayRow, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
       COALESCE(SUM(-change_amount) FILTER (WHERE change_amount < 0), 0),
       COALESCE(SUM(change_amount) FILTER (WHERE change_amount > 0), 0)
FROM %s
WHERE created_at >= $1
GROUP BY day
ORDER BY day
`, r.store.Table("credit_ledger"))

	rows, err := r.store.DB().QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CreditDayRow, 0)
	for rows.Next() {
		var c CreditDayRow
		if err := rows.Scan(&c.Day, &c.CreditsUsed, &c.CreditsAdded); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepo) DailyActiveUsers(ctx context.Context, from time.Time) ([]DayCount, error) {
	q := fmt.Sprintf(`
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(DISTINCT user_id)
FROM %s
WHERE created_at >= $1
GROUP BY day
ORDER BY day
`, r.store.Table("messages"))
	return r.dayCounts(ctx, q, from)
}

func (r *PGRepo) DailyAILatency(ctx context.Context, from time.Time) ([]LatencyDayRow, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
       COALESCE(AVG(latency_ms), 0),
       COALESCE(MAX(latency_ms), 0),
       COUNT(*)
FROM %s
WHERE created_at >= $1
GROUP BY day
ORDER BY day
`, r.store.Table("ai_usage"))

	rows, err := r.store.DB().QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LatencyDayRow, 0)
	for rows.Next() {
		var l LatencyDayRow
		if err := rows.Scan(&l.Day, &l.AvgLatencyMs, &l.MaxLatencyMs, &l.RequestCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) EmotionalStateCounts(ctx context.Context) ([]StateCount, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT COALESCE(emotional_state, 'unknown'), COUNT(*)
FROM %s
GROUP BY 1
ORDER BY 2 DESC
`, r.store.Table("conversation_state"))

	rows, err := r.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StateCount, 0)
	for rows.Next() {
		var s StateCount
		if err := rows.Scan(&s.State, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) TopicCounts(ctx context.Context, limit int) ([]TopicCount, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	// Rows with no topic count under "general" rather than dropping out of
	// the distribution.
	q := fmt.Sprintf(`
SELECT COALESCE(NULLIF(current_topic, ''), 'general'), COUNT(*)
FROM %s
GROUP BY 1
ORDER BY 2 DESC
LIMIT $1
`, r.store.Table("conversation_state"))

	rows, err := r.store.DB().QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopicCount, 0)
	for rows.Next() {
		var t TopicCount
		if err := rows.Scan(&t.Topic, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepo) UserActivity(ctx context.Context) ([]UserActivityRow, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT u.id, u.preferred_name, u.name, u.phone, u.created_at,
       cs.last_message_at, cs.emotional_state,
       (SELECT COUNT(*) FROM %[2]s m WHERE m.user_id = u.id)
FROM %[1]s u
LEFT JOIN %[3]s cs ON cs.user_id = u.id
WHERE u.deleted_at IS NULL
`, r.store.Table("users"), r.store.Table("messages"), r.store.Table("conversation_state"))

	rows, err := r.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserActivityRow, 0)
	for rows.Next() {
		var u UserActivityRow
		var last sql.NullTime
		if err := rows.Scan(&u.ID, &u.PreferredName, &u.Name, &u.Phone, &u.CreatedAt,
			&last, &u.EmotionalState, &u.MessageCount); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time
			u.LastMessageAt = &t
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PGRepo) SystemHealth(ctx context.Context) (SystemHealth, error) {
	var out SystemHealth
	if !r.store.Enabled() {
		return out, nil
	}
	// A conversation counts as active inside a 1 hour window; every other
	// counter looks back 24 hours. Errors come from the upstream pipeline's
	// execution_logs, not from ai_usage.
	q := fmt.Sprintf(`
SELECT
  (SELECT COUNT(*) FROM %[1]s WHERE created_at > NOW() - INTERVAL '24 hours'),
  (SELECT COUNT(*) FROM %[2]s WHERE created_at > NOW() - INTERVAL '24 hours'),
  (SELECT COALESCE(AVG(latency_ms), 0)::int FROM %[2]s WHERE created_at > NOW() - INTERVAL '24 hours'),
  (SELECT COUNT(*) FROM %[3]s WHERE status = 'error' AND created_at > NOW() - INTERVAL '24 hours'),
  (SELECT COALESCE(state, 'closed') FROM %[4]s WHERE service_name = $1 LIMIT 1),
  (SELECT COALESCE(SUM(ABS(change_amount)), 0) FROM %[5]s
     WHERE change_type = 'work_action' AND created_at > NOW() - INTERVAL '24 hours'),
  (SELECT COUNT(*) FROM %[6]s WHERE last_message_at > NOW() - INTERVAL '1 hour')
`, r.store.Table("messages"), r.store.Table("ai_usage"), r.store.Table("execution_logs"),
		r.store.Table("circuit_breakers"), r.store.Table("credit_ledger"), r.store.Table("conversation_state"))

	var breaker sql.NullString
	err := r.store.DB().QueryRowContext(ctx, q, r.breakerService).Scan(
		&out.TotalMessages24h, &out.TotalAICalls24h, &out.AvgResponseTimeMs,
		&out.ErrorCount24h, &breaker, &out.CreditsUsed24h, &out.ActiveConversations)
	if err != nil {
		return out, err
	}
	out.CircuitBreakerStatus = breaker.String
	return out, nil
}

func (r *PGRepo) EngagementMetrics(ctx context.Context) (EngagementMetrics, error) {
	var out EngagementMetrics
	if !r.store.Enabled() {
		return out, nil
	}
	// Session length is not tracked upstream; it stays zero.
	q := fmt.Sprintf(`
SELECT
  COALESCE((SELECT ROUND(AVG(msg_count), 1) FROM (
     SELECT COUNT(*) AS msg_count FROM %[2]s GROUP BY user_id
  ) t), 0),
  COALESCE(ROUND((SELECT COUNT(DISTINCT user_id) FROM %[2]s WHERE created_at > NOW() - INTERVAL '7 days')::float
     / NULLIF((SELECT COUNT(*) FROM %[1]s WHERE deleted_at IS NULL), 0) * 100), 0),
  COALESCE(ROUND((SELECT COUNT(*) FROM %[3]s WHERE last_message_at > NOW() - INTERVAL '24 hours')::float
     / NULLIF((SELECT COUNT(*) FROM %[1]s WHERE deleted_at IS NULL), 0) * 100), 0)
`, r.store.Table("users"), r.store.Table("messages"), r.store.Table("conversation_state"))

	err := r.store.DB().QueryRowContext(ctx, q).Scan(
		&out.AvgMessagesPerUser, &out.ReturnRate, &out.ActiveUserRate)
	return out, err
}

func (r *PGRepo) RecentMessages(ctx context.Context, since time.Time) ([]ActivityItem, error) {
	q := fmt.Sprintf(`
SELECT m.id, 'message', m.user_id,
       COALESCE(u.preferred_name, u.name, u.phone),
       m.role || ': ' || LEFT(m.content, 50),
       m.created_at
FROM %s m
JOIN %s u ON u.id = m.user_id
WHERE m.created_at >= $1
ORDER BY m.created_at DESC
LIMIT 50
`, r.store.Table("messages"), r.store.Table("users"))
	return r.activityItems(ctx, q, since)
}

func (r *PGRepo) RecentLedger(ctx context.Context, since time.Time) ([]ActivityItem, error) {
	q := fmt.Sprintf(`
SELECT cl.id, 'credit', cl.user_id,
       COALESCE(u.preferred_name, u.name, u.phone),
       cl.change_type || ' (' || cl.change_amount || '): ' || COALESCE(cl.description, ''),
       cl.created_at
FROM %s cl
JOIN %s u ON u.id = cl.user_id
WHERE cl.created_at >= $1
ORDER BY cl.created_at DESC
LIMIT 50
`, r.store.Table("credit_ledger"), r.store.Table("users"))
	return r.activityItems(ctx, q, since)
}

func (r *PGRepo) TextGenerationUsage(ctx context.Context) ([]ModelUsage, error) {
	q := fmt.Sprintf(`
SELECT COALESCE(model, 'unknown'), COUNT(*),
       COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
       COALESCE(SUM(cost_usd), 0)
FROM %s
GROUP BY 1
ORDER BY 2 DESC
`, r.store.Table("ai_usage"))
	return r.modelUsage(ctx, q)
}

func (r *PGRepo) TranscriptionUsage(ctx context.Context) ([]ModelUsage, error) {
	q := fmt.Sprintf(`
SELECT COALESCE(model, 'unknown'), COUNT(*), 0, 0, COALESCE(SUM(cost_usd), 0)
FROM %s
GROUP BY 1
ORDER BY 2 DESC
`, r.store.Table("media_usage"))
	return r.modelUsage(ctx, q)
}

func (r *PGRepo) MonthlyVariableCosts(ctx context.Context) ([]MonthCost, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT month, SUM(cost) FROM (
  SELECT to_char(created_at, 'YYYY-MM') AS month, COALESCE(SUM(cost_usd), 0) AS cost
  FROM %s GROUP BY 1
  UNION ALL
  SELECT to_char(created_at, 'YYYY-MM') AS month, COALESCE(SUM(cost_usd), 0) AS cost
  FROM %s GROUP BY 1
) merged
GROUP BY month
ORDER BY month
`, r.store.Table("ai_usage"), r.store.Table("media_usage"))

	rows, err := r.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MonthCost, 0)
	for rows.Next() {
		var m MonthCost
		if err := rows.Scan(&m.Month, &m.CostUSD); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- shared scan helpers ---

func (r *PGRepo) dayCounts(ctx context.Context, q string, from time.Time) ([]DayCount, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	rows, err := r.store.DB().QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DayCount, 0)
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGRepo) activityItems(ctx context.Context, q string, since time.Time) ([]ActivityItem, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	rows, err := r.store.DB().QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ActivityItem, 0)
	for rows.Next() {
		var a ActivityItem
		if err := rows.Scan(&a.ID, &a.Type, &a.UserID, &a.UserName, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) modelUsage(ctx context.Context, q string) ([]ModelUsage, error) {
	if !r.store.Enabled() {
		return nil, nil
	}
	rows, err := r.store.DB().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ModelUsage, 0)
	for rows.Next() {
		var m ModelUsage
		if err := rows.Scan(&m.Model, &m.Calls, &m.InputTokens, &m.OutputTokens, &m.CostUSD); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
