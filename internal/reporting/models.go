package reporting

import "time"

// Record shapes for the dashboard's reporting queries. JSON keys match what
// the pages render; chart-backing series use snake_case row fields, header
// stat blocks use camelCase.

// DashboardStats is the five-counter header of the main dashboard.
type DashboardStats struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveUsers    int `json:"activeUsers"`
	TotalCredits   int `json:"totalCredits"`
	ActiveRoutines int `json:"activeRoutines"`
	NeedsHuman     int `json:"needsHuman"`
}

// DailyMessageCount is one day of the message-volume chart.
type DailyMessageCount struct {
	Date              string `json:"date"`
	UserMessages      int    `json:"user_messages"`
	AssistantMessages int    `json:"assistant_messages"`
	Total             int    `json:"total"`
}

// UserGrowthPoint is one day of the signup chart, with the running total.
type UserGrowthPoint struct {
	Date       string `json:"date"`
	NewUsers   int    `json:"new_users"`
	Cumulative int    `json:"cumulative"`
}

// CreditsUsagePoint is one day of credit inflow/outflow.
type CreditsUsagePoint struct {
	Date         string `json:"date"`
	CreditsUsed  int    `json:"credits_used"`
	CreditsAdded int    `json:"credits_added"`
}

// DailyActivePoint is one day of distinct messaging patients.
type DailyActivePoint struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"active_users"`
}

// ResponseTimePoint is one day of AI latency aggregates.
type ResponseTimePoint struct {
	Date         string `json:"date"`
	AvgLatencyMs int    `json:"avg_latency_ms"`
	MaxLatencyMs int    `json:"max_latency_ms"`
	RequestCount int    `json:"request_count"`
}

// EmotionalStateCount is one slice of the emotional-state distribution.
// Percentage is of all conversation-state rows, to one decimal.
type EmotionalStateCount struct {
	State      string  `json:"state"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TopicCount is one slice of the conversation-topic distribution.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// EngagementOpportunity is a patient the operators should reach out to,
// with the reason the ranking flagged them.
type EngagementOpportunity struct {
	ID             string     `json:"id"`
	PreferredName  *string    `json:"preferred_name,omitempty"`
	Name           *string    `json:"name,omitempty"`
	Phone          string     `json:"phone"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	DaysInactive   int        `json:"days_inactive"`
	MessageCount   int        `json:"message_count"`
	EmotionalState *string    `json:"emotional_state,omitempty"`
	Reason         string     `json:"reason"`
}

// SystemHealth is the telemetry block of the system-health page. The
// circuit-breaker state is read-only upstream telemetry; "closed" is the
// healthy default when no row exists.
type SystemHealth struct {
	TotalMessages24h     int    `json:"totalMessages24h"`
	TotalAICalls24h      int    `json:"totalAiCalls24h"`
	AvgResponseTimeMs    int    `json:"avgResponseTimeMs"`
	ErrorCount24h        int    `json:"errorCount24h"`
	CircuitBreakerStatus string `json:"circuitBreakerStatus"`
	CreditsUsed24h       int    `json:"creditsUsed24h"`
	ActiveConversations  int    `json:"activeConversations"`
}

// EngagementMetrics is the engagement summary block of the analytics page.
type EngagementMetrics struct {
	AvgMessagesPerUser float64 `json:"avgMessagesPerUser"`
	AvgSessionLength   float64 `json:"avgSessionLength"`
	ReturnRate         int     `json:"returnRate"`
	ActiveUserRate     int     `json:"activeUserRate"`
}

// ActivityItem is one line of the recent-activity feed: a message or a
// ledger entry from the last 24 hours.
type ActivityItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ModelUsage is aggregated AI spend for one model from one usage source.
type ModelUsage struct {
	Model        string  `json:"model"`
	Calls        int     `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// AIUsageRollup merges the text-generation and media-transcription sources
// into a combined total plus a per-model breakdown.
type AIUsageRollup struct {
	Combined ModelUsage   `json:"combined"`
	ByModel  []ModelUsage `json:"by_model"`
}

// MonthCost is one calendar month of variable AI cost. PercentChange is
// against the previous month and absent when that month's cost is zero.
type MonthCost struct {
	Month         string   `json:"month"`
	CostUSD       float64  `json:"cost_usd"`
	PercentChange *float64 `json:"percent_change,omitempty"`
}

// Raw repository row shapes (grouped in SQL, aggregated in the service).

type MessageDayRow struct {
	Day               time.Time
	UserMessages      int
	AssistantMessages int
	Total             int
}

type DayCount struct {
	Day   time.Time
	Count int
}

type CreditDayRow struct {
	Day          time.Time
	CreditsUsed  int
	CreditsAdded int
}

type LatencyDayRow struct {
	Day          time.Time
	AvgLatencyMs float64
	MaxLatencyMs int
	RequestCount int
}

type StateCount struct {
	State string
	Count int
}

// UserActivityRow is the per-patient activity snapshot behind the
// engagement-opportunity ranking.
type UserActivityRow struct {
	ID             string
	PreferredName  *string
	Name           *string
	Phone          string
	LastMessageAt  *time.Time
	CreatedAt      time.Time
	EmotionalState *string
	MessageCount   int
}
