package reporting

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, nil)
	s.clock = fixedClock
	return s
}

func day(offset int) time.Time {
	return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func strptr(s string) *string { return &s }

func TestMessageVolumeWindowLength(t *testing.T) {
	svc := newTestService(&MemoryRepo{})

	for _, days := range []int{1, 7, 14, 30} {
		got := svc.MessageVolumeByDay(context.Background(), days)
		if len(got) != days {
			t.Fatalf("days=%d: got %d rows", days, len(got))
		}
		for _, row := range got {
			if row.Total != 0 || row.UserMessages != 0 {
				t.Fatalf("days=%d: expected zero-filled rows, got %+v", days, row)
			}
		}
	}
}

func TestMessageVolumeDefaultsAndFill(t *testing.T) {
	repo := &MemoryRepo{
		MessageDays: []MessageDayRow{
			{Day: day(0), UserMessages: 3, AssistantMessages: 4, Total: 7},
			{Day: day(-2), UserMessages: 1, AssistantMessages: 1, Total: 2},
		},
	}
	svc := newTestService(repo)

	got := svc.MessageVolumeByDay(context.Background(), 0)
	if len(got) != 14 {
		t.Fatalf("default window: got %d rows", len(got))
	}
	last := got[len(got)-1]
	if last.Date != "Mar 15" || last.Total != 7 {
		t.Fatalf("last row = %+v", last)
	}
	if got[len(got)-2].Total != 0 {
		t.Fatalf("yesterday should be zero-filled, got %+v", got[len(got)-2])
	}
	if got[len(got)-3].Total != 2 {
		t.Fatalf("two days ago should carry seeded count, got %+v", got[len(got)-3])
	}
}

func TestMessageVolumeNonUTCDriverZone(t *testing.T) {
	// Drivers may hand back day timestamps in the session zone. The same
	// instant as Mar 15 UTC midnight, expressed at UTC-5, must still land
	// on the Mar 15 bucket.
	shifted := day(0).In(time.FixedZone("UTC-5", -5*3600))
	repo := &MemoryRepo{
		MessageDays: []MessageDayRow{
			{Day: shifted, UserMessages: 2, AssistantMessages: 3, Total: 5},
		},
	}
	svc := newTestService(repo)

	got := svc.MessageVolumeByDay(context.Background(), 3)
	last := got[len(got)-1]
	if last.Date != "Mar 15" || last.Total != 5 {
		t.Fatalf("last row = %+v, want Mar 15 with total 5", last)
	}
}

func TestUserGrowthCumulative(t *testing.T) {
	repo := &MemoryRepo{
		BaseUsers: 100,
		Signups: []DayCount{
			{Day: day(-2), Count: 5},
			{Day: day(0), Count: 2},
		},
	}
	svc := newTestService(repo)

	got := svc.UserGrowth(context.Background(), 3)
	if len(got) != 3 {
		t.Fatalf("got %d rows", len(got))
	}
	wantCum := []int{105, 105, 107}
	wantNew := []int{5, 0, 2}
	for i, row := range got {
		if row.Cumulative != wantCum[i] || row.NewUsers != wantNew[i] {
			t.Fatalf("row %d = %+v, want new=%d cum=%d", i, row, wantNew[i], wantCum[i])
		}
	}
}

func TestEmotionalStateDistribution(t *testing.T) {
	repo := &MemoryRepo{
		States: []StateCount{
			{State: "anxious", Count: 2},
			{State: "neutral", Count: 5},
			{State: "", Count: 1},
		},
	}
	svc := newTestService(repo)

	got := svc.EmotionalStateDistribution(context.Background())
	if len(got) != 3 {
		t.Fatalf("got %d states", len(got))
	}
	if got[0].State != "neutral" {
		t.Fatalf("largest state first, got %q", got[0].State)
	}
	if got[0].Percentage != 62.5 {
		t.Fatalf("neutral percentage = %v", got[0].Percentage)
	}
	if got[2].State != "unknown" {
		t.Fatalf("empty state should bucket as unknown, got %q", got[2].State)
	}

	var sum float64
	for _, s := range got {
		sum += s.Percentage
	}
	if sum < 99.5 || sum > 100.5 {
		t.Fatalf("percentages sum to %v", sum)
	}
}

func TestEmotionalStateDistributionEmpty(t *testing.T) {
	svc := newTestService(&MemoryRepo{})
	if got := svc.EmotionalStateDistribution(context.Background()); len(got) != 0 {
		t.Fatalf("empty input should yield empty distribution, got %v", got)
	}
}

func TestEngagementOpportunitiesRanking(t *testing.T) {
	now := fixedClock()
	ago := func(d int) *time.Time {
		t := now.AddDate(0, 0, -d)
		return &t
	}

	repo := &MemoryRepo{
		Activity: []UserActivityRow{
			{ID: "healthy", Phone: "1", LastMessageAt: ago(1), CreatedAt: day(-30), MessageCount: 20, EmotionalState: strptr("calm")},
			{ID: "inactive", Phone: "2", LastMessageAt: ago(10), CreatedAt: day(-30), MessageCount: 20},
			{ID: "quiet", Phone: "3", LastMessageAt: ago(1), CreatedAt: day(-30), MessageCount: 2},
			{ID: "distressed", Phone: "4", LastMessageAt: ago(2), CreatedAt: day(-30), MessageCount: 40, EmotionalState: strptr("anxious")},
			{ID: "never-wrote", Phone: "5", CreatedAt: day(-6), MessageCount: 0},
		},
	}
	svc := newTestService(repo)

	got := svc.EngagementOpportunities(context.Background())
	if len(got) != 4 {
		t.Fatalf("got %d opportunities: %+v", len(got), got)
	}
	if got[0].ID != "distressed" {
		t.Fatalf("distress must rank first, got %q", got[0].ID)
	}
	if got[0].Reason != "Needs emotional support" {
		t.Fatalf("distressed reason = %q", got[0].Reason)
	}
	if got[1].ID != "inactive" || got[1].Reason != "Inactive for 10 days" {
		t.Fatalf("row 1 = %+v", got[1])
	}
	if got[2].ID != "never-wrote" || got[2].Reason != "Low engagement (0 messages)" {
		t.Fatalf("row 2 = %+v", got[2])
	}
	if got[3].ID != "quiet" || got[3].Reason != "Low engagement (2 messages)" {
		t.Fatalf("row 3 = %+v", got[3])
	}
}

func TestEngagementOpportunitiesLimit(t *testing.T) {
	rows := make([]UserActivityRow, 0, 25)
	for i := 0; i < 25; i++ {
		last := fixedClock().AddDate(0, 0, -(i + 5))
		rows = append(rows, UserActivityRow{
			ID: "u", Phone: "p", LastMessageAt: &last, CreatedAt: day(-60), MessageCount: 50,
		})
	}
	svc := newTestService(&MemoryRepo{Activity: rows})

	got := svc.EngagementOpportunities(context.Background())
	if len(got) != 10 {
		t.Fatalf("got %d opportunities, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DaysInactive > got[i-1].DaysInactive {
			t.Fatalf("rows not sorted by inactivity: %d after %d", got[i].DaysInactive, got[i-1].DaysInactive)
		}
	}
}

func TestAIUsageRollupMerge(t *testing.T) {
	repo := &MemoryRepo{
		TextUsage: []ModelUsage{
			{Model: "claude-sonnet", Calls: 10, InputTokens: 1000, OutputTokens: 500, CostUSD: 1.5},
		},
		MediaUsage: []ModelUsage{
			{Model: "whisper", Calls: 30, CostUSD: 0.75},
			{Model: "claude-sonnet", Calls: 5, CostUSD: 0.25},
		},
	}
	svc := newTestService(repo)

	got := svc.AIUsageRollup(context.Background())
	if got.Combined.Calls != 45 || got.Combined.CostUSD != 2.5 {
		t.Fatalf("combined = %+v", got.Combined)
	}
	if len(got.ByModel) != 2 {
		t.Fatalf("got %d models", len(got.ByModel))
	}
	if got.ByModel[0].Model != "whisper" {
		t.Fatalf("models not sorted by calls: %+v", got.ByModel)
	}
	if got.ByModel[1].Calls != 15 || got.ByModel[1].CostUSD != 1.75 {
		t.Fatalf("merged model = %+v", got.ByModel[1])
	}
}

func TestMonthlyCostsPercentChange(t *testing.T) {
	repo := &MemoryRepo{
		Costs: []MonthCost{
			{Month: "2025-02", CostUSD: 20},
			{Month: "2025-01", CostUSD: 0},
			{Month: "2025-03", CostUSD: 25},
		},
	}
	svc := newTestService(repo)

	got := svc.MonthlyCosts(context.Background())
	if len(got) != 3 || got[0].Month != "2025-01" {
		t.Fatalf("months not sorted ascending: %+v", got)
	}
	if got[0].PercentChange != nil {
		t.Fatalf("first month should have no change")
	}
	if got[1].PercentChange != nil {
		t.Fatalf("change against a zero month should be absent, got %v", *got[1].PercentChange)
	}
	if got[2].PercentChange == nil || *got[2].PercentChange != 25.0 {
		t.Fatalf("march change = %v", got[2].PercentChange)
	}
}

func TestRecentActivityMerge(t *testing.T) {
	repo := &MemoryRepo{
		Messages: []ActivityItem{
			{ID: "m1", Type: "message", CreatedAt: fixedClock().Add(-1 * time.Hour)},
			{ID: "m2", Type: "message", CreatedAt: fixedClock().Add(-5 * time.Hour)},
		},
		Ledger: []ActivityItem{
			{ID: "c1", Type: "credit", CreatedAt: fixedClock().Add(-2 * time.Hour)},
		},
	}
	svc := newTestService(repo)

	got := svc.RecentActivity(context.Background(), 15)
	wantOrder := []string{"m1", "c1", "m2"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d items", len(got))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, got[i].ID, id)
		}
	}

	if got := svc.RecentActivity(context.Background(), 2); len(got) != 2 {
		t.Fatalf("limit not applied, got %d items", len(got))
	}
}

func TestReportsFailOpen(t *testing.T) {
	repo := &MemoryRepo{Err: errors.New("connection refused")}
	svc := newTestService(repo)
	ctx := context.Background()

	if got := svc.Stats(ctx); got != (DashboardStats{}) {
		t.Fatalf("stats should zero out on error, got %+v", got)
	}
	if got := svc.MessageVolumeByDay(ctx, 7); len(got) != 7 {
		t.Fatalf("volume should still zero-fill the window, got %d rows", len(got))
	}
	if got := svc.EmotionalStateDistribution(ctx); len(got) != 0 {
		t.Fatalf("distribution should be empty on error, got %v", got)
	}
	if got := svc.EngagementOpportunities(ctx); len(got) != 0 {
		t.Fatalf("opportunities should be empty on error, got %v", got)
	}
	if got := svc.SystemHealth(ctx); got.CircuitBreakerStatus != "closed" {
		t.Fatalf("breaker should default closed, got %q", got.CircuitBreakerStatus)
	}
	if got := svc.MonthlyCosts(ctx); len(got) != 0 {
		t.Fatalf("costs should be empty on error, got %v", got)
	}
}
