package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"vivebien-dashboard/internal/patients"
)

// Repository abstracts data access for reporting.
//
// IMPORTANT:
//   - Implementations query append-only or upstream-owned tables; nothing here
//     ever writes.
//   - Grouping happens in SQL; window zero-fill, percentages, ranking and
//     merging happen in the Service so they are testable without a database.
type Repository interface {
	DashboardStats(ctx context.Context) (DashboardStats, error)

	DailyMessageCounts(ctx context.Context, from time.Time) ([]MessageDayRow, error)
	DailyUserSignups(ctx context.Context, from time.Time) ([]DayCount, error)
	CountUsersBefore(ctx context.Context, day time.Time) (int, error)
	DailyCreditFlows(ctx context.Context, from time.Time) ([]CreditDayRow, error)
	DailyActiveUsers(ctx context.Context, from time.Time) ([]DayCount, error)
	DailyAILatency(ctx context.Context, from time.Time) ([]LatencyDayRow, error)

	EmotionalStateCounts(ctx context.Context) ([]StateCount, error)
	TopicCounts(ctx context.Context, limit int) ([]TopicCount, error)
	UserActivity(ctx context.Context) ([]UserActivityRow, error)

	SystemHealth(ctx context.Context) (SystemHealth, error)
	EngagementMetrics(ctx context.Context) (EngagementMetrics, error)

	RecentMessages(ctx context.Context, since time.Time) ([]ActivityItem, error)
	RecentLedger(ctx context.Context, since time.Time) ([]ActivityItem, error)

	TextGenerationUsage(ctx context.Context) ([]ModelUsage, error)
	TranscriptionUsage(ctx context.Context) ([]ModelUsage, error)
	MonthlyVariableCosts(ctx context.Context) ([]MonthCost, error)
}

// Service computes every report the dashboard renders.
//
// Fail-open policy: a repository failure is logged and degrades to an empty
// (or zero-valued) result so the page renders a "no data" section rather
// than an error. This trades observability for availability; revisit before
// relying on blank charts to mean "no activity".
type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

const dateLabel = "Jan 02"

func (s *Service) Stats(ctx context.Context) DashboardStats {
	if s.repo == nil {
		return DashboardStats{}
	}
	out, err := s.repo.DashboardStats(ctx)
	if err != nil {
		s.log.Error("dashboard stats query failed", "err", err)
		return DashboardStats{}
	}
	return out
}

// MessageVolumeByDay returns exactly one row per calendar day of the window,
// zero-filled for days without messages.
func (s *Service) MessageVolumeByDay(ctx context.Context, days int) []DailyMessageCount {
	days = normalizeWindow(days, 14)
	window := s.window(days)
	out := make([]DailyMessageCount, 0, days)

	byDay := map[string]MessageDayRow{}
	if s.repo != nil {
		rows, err := s.repo.DailyMessageCounts(ctx, window[0])
		if err != nil {
			s.log.Error("message volume query failed", "err", err)
		} else {
			for _, r := range rows {
				byDay[dayKey(r.Day)] = r
			}
		}
	}
	for _, day := range window {
		r := byDay[dayKey(day)]
		out = append(out, DailyMessageCount{
			Date:              day.Format(dateLabel),
			UserMessages:      r.UserMessages,
			AssistantMessages: r.AssistantMessages,
			Total:             r.Total,
		})
	}
	return out
}

// UserGrowth returns one row per day with that day's signups and the running
// total of all users created on or before it.
func (s *Service) UserGrowth(ctx context.Context, days int) []UserGrowthPoint {
	days = normalizeWindow(days, 30)
	window := s.window(days)
	out := make([]UserGrowthPoint, 0, days)

	base := 0
	byDay := map[string]int{}
	if s.repo != nil {
		var err error
		base, err = s.repo.CountUsersBefore(ctx, window[0])
		if err != nil {
			s.log.Error("user base count query failed", "err", err)
			base = 0
		}
		rows, err := s.repo.DailyUserSignups(ctx, window[0])
		if err != nil {
			s.log.Error("user growth query failed", "err", err)
		} else {
			for _, r := range rows {
				byDay[dayKey(r.Day)] = r.Count
			}
		}
	}

	cumulative := base
	for _, day := range window {
		n := byDay[dayKey(day)]
		cumulative += n
		out = append(out, UserGrowthPoint{Date: day.Format(dateLabel), NewUsers: n, Cumulative: cumulative})
	}
	return out
}

// CreditsUsage returns one row per day of credit outflow/inflow derived from
// the ledger: used is the sum of negative change magnitudes, added of
// positive ones.
func (s *Service) CreditsUsage(ctx context.Context, days int) []CreditsUsagePoint {
	days = normalizeWindow(days, 14)
	window := s.window(days)
	out := make([]CreditsUsagePoint, 0, days)

	byDay := map[string]CreditDayRow{}
	if s.repo != nil {
		rows, err := s.repo.DailyCreditFlows(ctx, window[0])
		if err != nil {
			s.log.Error("credits usage query failed", "err", err)
		} else {
			for _, r := range rows {
				byDay[dayKey(r.Day)] = r
			}
		}
	}
	for _, day := range window {
		r := byDay[dayKey(day)]
		out = append(out, CreditsUsagePoint{Date: day.Format(dateLabel), CreditsUsed: r.CreditsUsed, CreditsAdded: r.CreditsAdded})
	}
	return out
}

// DailyActiveUsers returns one row per day counting distinct patients who
// sent or received a message.
func (s *Service) DailyActiveUsers(ctx context.Context, days int) []DailyActivePoint {
	days = normalizeWindow(days, 14)
	window := s.window(days)
	out := make([]DailyActivePoint, 0, days)

	byDay := map[string]int{}
	if s.repo != nil {
		rows, err := s.repo.DailyActiveUsers(ctx, window[0])
		if err != nil {
			s.log.Error("daily active users query failed", "err", err)
		} else {
			for _, r := range rows {
				byDay[dayKey(r.Day)] = r.Count
			}
		}
	}
	for _, day := range window {
		out = append(out, DailyActivePoint{Date: day.Format(dateLabel), ActiveUsers: byDay[dayKey(day)]})
	}
	return out
}

// ResponseTimeTrends returns one row per day of AI-call latency aggregates.
func (s *Service) ResponseTimeTrends(ctx context.Context, days int) []ResponseTimePoint {
	days = normalizeWindow(days, 7)
	window := s.window(days)
	out := make([]ResponseTimePoint, 0, days)

	byDay := map[string]LatencyDayRow{}
	if s.repo != nil {
		rows, err := s.repo.DailyAILatency(ctx, window[0])
		if err != nil {
			s.log.Error("response time query failed", "err", err)
		} else {
			for _, r := range rows {
				byDay[dayKey(r.Day)] = r
			}
		}
	}
	for _, day := range window {
		r := byDay[dayKey(day)]
		out = append(out, ResponseTimePoint{
			Date:         day.Format(dateLabel),
			AvgLatencyMs: int(math.Round(r.AvgLatencyMs)),
			MaxLatencyMs: r.MaxLatencyMs,
			RequestCount: r.RequestCount,
		})
	}
	return out
}

// EmotionalStateDistribution returns each state's share of all
// conversation-state rows, largest first. Empty input yields an empty list,
// never a division error.
func (s *Service) EmotionalStateDistribution(ctx context.Context) []EmotionalStateCount {
	if s.repo == nil {
		return []EmotionalStateCount{}
	}
	rows, err := s.repo.EmotionalStateCounts(ctx)
	if err != nil {
		s.log.Error("emotional state query failed", "err", err)
		return []EmotionalStateCount{}
	}

	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if total == 0 {
		return []EmotionalStateCount{}
	}

	out := make([]EmotionalStateCount, 0, len(rows))
	for _, r := range rows {
		state := r.State
		if state == "" {
			state = "unknown"
		}
		out = append(out, EmotionalStateCount{
			State:      state,
			Count:      r.Count,
			Percentage: round1(float64(r.Count) / float64(total) * 100),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopicDistribution returns the ten most common conversation topics; rows
// without a topic count under "general".
func (s *Service) TopicDistribution(ctx context.Context) []TopicCount {
	if s.repo == nil {
		return []TopicCount{}
	}
	rows, err := s.repo.TopicCounts(ctx, 10)
	if err != nil {
		s.log.Error("topic distribution query failed", "err", err)
		return []TopicCount{}
	}
	return rows
}

// EngagementOpportunities ranks patients who need attention: inactive more
// than three days, fewer than five messages ever, or in a distress emotional
// state. Distress sorts strictly first, then longest inactivity.
func (s *Service) EngagementOpportunities(ctx context.Context) []EngagementOpportunity {
	if s.repo == nil {
		return []EngagementOpportunity{}
	}
	rows, err := s.repo.UserActivity(ctx)
	if err != nil {
		s.log.Error("user activity query failed", "err", err)
		return []EngagementOpportunity{}
	}
	return rankOpportunities(s.clock().UTC(), rows, 10)
}

func (s *Service) SystemHealth(ctx context.Context) SystemHealth {
	fallback := SystemHealth{CircuitBreakerStatus: "closed"}
	if s.repo == nil {
		return fallback
	}
	out, err := s.repo.SystemHealth(ctx)
	if err != nil {
		s.log.Error("system health query failed", "err", err)
		return fallback
	}
	if out.CircuitBreakerStatus == "" {
		out.CircuitBreakerStatus = "closed"
	}
	return out
}

func (s *Service) EngagementMetrics(ctx context.Context) EngagementMetrics {
	if s.repo == nil {
		return EngagementMetrics{}
	}
	out, err := s.repo.EngagementMetrics(ctx)
	if err != nil {
		s.log.Error("engagement metrics query failed", "err", err)
		return EngagementMetrics{}
	}
	return out
}

// RecentActivity merges the last 24 hours of messages and ledger entries
// into one feed, newest first.
func (s *Service) RecentActivity(ctx context.Context, limit int) []ActivityItem {
	if limit <= 0 {
		limit = 15
	}
	if s.repo == nil {
		return []ActivityItem{}
	}
	since := s.clock().UTC().Add(-24 * time.Hour)

	msgs, err := s.repo.RecentMessages(ctx, since)
	if err != nil {
		s.log.Error("recent messages query failed", "err", err)
		msgs = nil
	}
	ledger, err := s.repo.RecentLedger(ctx, since)
	if err != nil {
		s.log.Error("recent ledger query failed", "err", err)
		ledger = nil
	}

	out := make([]ActivityItem, 0, len(msgs)+len(ledger))
	out = append(out, msgs...)
	out = append(out, ledger...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AIUsageRollup merges text-generation and media-transcription spend into a
// combined total and a per-model breakdown sorted by call count.
func (s *Service) AIUsageRollup(ctx context.Context) AIUsageRollup {
	out := AIUsageRollup{ByModel: []ModelUsage{}}
	if s.repo == nil {
		return out
	}
	text, err := s.repo.TextGenerationUsage(ctx)
	if err != nil {
		s.log.Error("ai usage query failed", "err", err)
		text = nil
	}
	media, err := s.repo.TranscriptionUsage(ctx)
	if err != nil {
		s.log.Error("media usage query failed", "err", err)
		media = nil
	}
	return mergeUsage(text, media)
}

// MonthlyCosts returns variable AI cost per calendar month, oldest first,
// with the month-over-month percent change. The change is absent when the
// previous month's cost is zero.
func (s *Service) MonthlyCosts(ctx context.Context) []MonthCost {
	if s.repo == nil {
		return []MonthCost{}
	}
	rows, err := s.repo.MonthlyVariableCosts(ctx)
	if err != nil {
		s.log.Error("monthly costs query failed", "err", err)
		return []MonthCost{}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	withPercentChange(rows)
	return rows
}

// --- aggregation helpers ---

func normalizeWindow(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return days
}

// window returns the last `days` calendar days in UTC, oldest first, ending
// today.
func (s *Service) window(days int) []time.Time {
	today := truncateToDay(s.clock().UTC())
	out := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayKey normalizes to UTC so scanned rows match the zero-fill window even
// when the driver attaches a non-UTC session zone to the day timestamps.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func rankOpportunities(now time.Time, rows []UserActivityRow, limit int) []EngagementOpportunity {
	out := make([]EngagementOpportunity, 0)
	for _, r := range rows {
		last := r.CreatedAt
		if r.LastMessageAt != nil {
			last = *r.LastMessageAt
		}
		daysInactive := int(now.Sub(last).Hours() / 24)
		if daysInactive < 0 {
			daysInactive = 0
		}
		distress := r.EmotionalState != nil && patients.IsDistress(*r.EmotionalState)

		if daysInactive <= 3 && r.MessageCount >= 5 && !distress {
			continue
		}

		out = append(out, EngagementOpportunity{
			ID:             r.ID,
			PreferredName:  r.PreferredName,
			Name:           r.Name,
			Phone:          r.Phone,
			LastMessageAt:  r.LastMessageAt,
			DaysInactive:   daysInactive,
			MessageCount:   r.MessageCount,
			EmotionalState: r.EmotionalState,
			Reason:         opportunityReason(daysInactive, r.MessageCount, distress),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ad := a.EmotionalState != nil && patients.IsDistress(*a.EmotionalState)
		bd := b.EmotionalState != nil && patients.IsDistress(*b.EmotionalState)
		if ad != bd {
			return ad
		}
		return a.DaysInactive > b.DaysInactive
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// opportunityReason mirrors the display rules: long inactivity wins, then
// low message volume, then emotional distress.
func opportunityReason(daysInactive, messageCount int, distress bool) string {
	switch {
	case daysInactive > 7:
		return fmt.Sprintf("Inactive for %d days", daysInactive)
	case messageCount < 5:
		return fmt.Sprintf("Low engagement (%d messages)", messageCount)
	case distress:
		return "Needs emotional support"
	default:
		return "Check-in recommended"
	}
}

func mergeUsage(sources ...[]ModelUsage) AIUsageRollup {
	byModel := map[string]*ModelUsage{}
	order := []string{}
	var combined ModelUsage
	combined.Model = "combined"

	for _, src := range sources {
		for _, u := range src {
			combined.Calls += u.Calls
			combined.InputTokens += u.InputTokens
			combined.OutputTokens += u.OutputTokens
			combined.CostUSD += u.CostUSD

			m, ok := byModel[u.Model]
			if !ok {
				m = &ModelUsage{Model: u.Model}
				byModel[u.Model] = m
				order = append(order, u.Model)
			}
			m.Calls += u.Calls
			m.InputTokens += u.InputTokens
			m.OutputTokens += u.OutputTokens
			m.CostUSD += u.CostUSD
		}
	}

	out := make([]ModelUsage, 0, len(order))
	for _, model := range order {
		out = append(out, *byModel[model])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Calls > out[j].Calls })
	return AIUsageRollup{Combined: combined, ByModel: out}
}

func withPercentChange(rows []MonthCost) {
	for i := range rows {
		rows[i].PercentChange = nil
		if i == 0 {
			continue
		}
		prev := rows[i-1].CostUSD
		if prev == 0 {
			continue
		}
		change := round1((rows[i].CostUSD - prev) / prev * 100)
		rows[i].PercentChange = &change
	}
}
