package reporting

import (
	"context"
	"time"
)

// MemoryRepo is an in-memory Repository for tests. Seed the fields the test
// cares about; set Err to make every method fail.
type MemoryRepo struct {
	Stats       DashboardStats
	MessageDays []MessageDayRow
	Signups     []DayCount
	BaseUsers   int
	CreditDays  []CreditDayRow
	ActiveDays  []DayCount
	LatencyDays []LatencyDayRow
	States      []StateCount
	Topics      []TopicCount
	Activity    []UserActivityRow
	Health      SystemHealth
	Metrics     EngagementMetrics
	Messages    []ActivityItem
	Ledger      []ActivityItem
	TextUsage   []ModelUsage
	MediaUsage  []ModelUsage
	Costs       []MonthCost

	Err error
}

func (m *MemoryRepo) DashboardStats(context.Context) (DashboardStats, error) {
	return m.Stats, m.Err
}

func (m *MemoryRepo) DailyMessageCounts(context.Context, time.Time) ([]MessageDayRow, error) {
	return m.MessageDays, m.Err
}

func (m *MemoryRepo) DailyUserSignups(context.Context, time.Time) ([]DayCount, error) {
	return m.Signups, m.Err
}

func (m *MemoryRepo) CountUsersBefore(context.Context, time.Time) (int, error) {
	return m.BaseUsers, m.Err
}

func (m *MemoryRepo) DailyCreditFlows(context.Context, time.Time) ([]CreditDayRow, error) {
	return m.CreditDays, m.Err
}

func (m *MemoryRepo) DailyActiveUsers(context.Context, time.Time) ([]DayCount, error) {
	return m.ActiveDays, m.Err
}

func (m *MemoryRepo) DailyAILatency(context.Context, time.Time) ([]LatencyDayRow, error) {
	return m.LatencyDays, m.Err
}

func (m *MemoryRepo) EmotionalStateCounts(context.Context) ([]StateCount, error) {
	return m.States, m.Err
}

func (m *MemoryRepo) TopicCounts(context.Context, int) ([]TopicCount, error) {
	return m.Topics, m.Err
}

func (m *MemoryRepo) UserActivity(context.Context) ([]UserActivityRow, error) {
	return m.Activity, m.Err
}

func (m *MemoryRepo) SystemHealth(context.Context) (SystemHealth, error) {
	return m.Health, m.Err
}

func (m *MemoryRepo) EngagementMetrics(context.Context) (EngagementMetrics, error) {
	return m.Metrics, m.Err
}

func (m *MemoryRepo) RecentMessages(context.Context, time.Time) ([]ActivityItem, error) {
	return m.Messages, m.Err
}

func (m *MemoryRepo) RecentLedger(context.Context, time.Time) ([]ActivityItem, error) {
	return m.Ledger, m.Err
}

func (m *MemoryRepo) TextGenerationUsage(context.Context) ([]ModelUsage, error) {
	return m.TextUsage, m.Err
}

func (m *MemoryRepo) TranscriptionUsage(context.Context) ([]ModelUsage, error) {
	return m.MediaUsage, m.Err
}

func (m *MemoryRepo) MonthlyVariableCosts(context.Context) ([]MonthCost, error) {
	return m.Costs, m.Err
}
