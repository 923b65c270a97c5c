package httpapi

import (
	"net/http"
	"strconv"

	"vivebien-dashboard/internal/billing"
	"vivebien-dashboard/internal/care"
	"vivebien-dashboard/internal/followups"
	"vivebien-dashboard/internal/notes"
	"vivebien-dashboard/internal/patients"
	"vivebien-dashboard/internal/reporting"
	"vivebien-dashboard/internal/routines"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Page endpoints fan out their constituent reports concurrently and join
// before responding. Reads are fail-open in the services, so a slow or
// broken query yields a blank section, not a failed page.

func (h Handlers) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		stats         reporting.DashboardStats
		roster        []patients.RosterRow
		volume        []reporting.DailyMessageCount
		opportunities []reporting.EngagementOpportunity
		pending       []followups.Followup
		health        reporting.SystemHealth
		activity      []reporting.ActivityItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { stats = h.Reports.Stats(gctx); return nil })
	g.Go(func() error {
		roster = h.Patients.Roster(gctx)
		patients.SortRoster(roster)
		return nil
	})
	g.Go(func() error { volume = h.Reports.MessageVolumeByDay(gctx, 14); return nil })
	g.Go(func() error { opportunities = h.Reports.EngagementOpportunities(gctx); return nil })
	g.Go(func() error { pending = h.Followups.Pending(gctx); return nil })
	g.Go(func() error { health = h.Reports.SystemHealth(gctx); return nil })
	g.Go(func() error { activity = h.Reports.RecentActivity(gctx, 15); return nil })
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{
		"stats":            stats,
		"patients":         roster,
		"messageVolume":    volume,
		"opportunities":    opportunities,
		"pendingFollowups": pending,
		"systemHealth":     health,
		"recentActivity":   activity,
	})
}

func (h Handlers) PatientList(c *gin.Context) {
	roster := h.Patients.Roster(c.Request.Context())
	patients.SortRoster(roster)
	c.JSON(http.StatusOK, gin.H{"patients": roster})
}

func (h Handlers) PatientDetail(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	detail, ok := h.Patients.ByID(ctx, id)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "patient not found"})
		return
	}

	var (
		messages     []patients.Message
		patientNotes []notes.OperatorNote
		history      []billing.CreditLedgerEntry
		vault        patients.VaultSummary
		userRoutines []routines.HealthRoutine
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { messages = h.Patients.Messages(gctx, id, 100); return nil })
	g.Go(func() error { patientNotes = h.Notes.ListByUser(gctx, id); return nil })
	g.Go(func() error { history = h.Billing.CreditHistory(gctx, id); return nil })
	g.Go(func() error { vault = h.Patients.VaultSummary(gctx, id); return nil })
	g.Go(func() error { userRoutines = h.Routines.ListByUser(gctx, id); return nil })
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{
		"patient":       detail,
		"messages":      messages,
		"notes":         patientNotes,
		"creditHistory": history,
		"vault":         vault,
		"routines":      userRoutines,
	})
}

func (h Handlers) Analytics(c *gin.Context) {
	ctx := c.Request.Context()
	days := intQuery(c, "days", 14)

	var (
		stats   reporting.DashboardStats
		volume  []reporting.DailyMessageCount
		growth  []reporting.UserGrowthPoint
		credits []reporting.CreditsUsagePoint
		active  []reporting.DailyActivePoint
		states  []reporting.EmotionalStateCount
		topics  []reporting.TopicCount
		metrics reporting.EngagementMetrics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { stats = h.Reports.Stats(gctx); return nil })
	g.Go(func() error { volume = h.Reports.MessageVolumeByDay(gctx, days); return nil })
	g.Go(func() error { growth = h.Reports.UserGrowth(gctx, 30); return nil })
	g.Go(func() error { credits = h.Reports.CreditsUsage(gctx, days); return nil })
	g.Go(func() error { active = h.Reports.DailyActiveUsers(gctx, days); return nil })
	g.Go(func() error { states = h.Reports.EmotionalStateDistribution(gctx); return nil })
	g.Go(func() error { topics = h.Reports.TopicDistribution(gctx); return nil })
	g.Go(func() error { metrics = h.Reports.EngagementMetrics(gctx); return nil })
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{
		"stats":            stats,
		"messageVolume":    volume,
		"userGrowth":       growth,
		"creditsUsage":     credits,
		"dailyActiveUsers": active,
		"emotionalStates":  states,
		"topics":           topics,
		"engagement":       metrics,
	})
}

func (h Handlers) SystemHealthPage(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		health reporting.SystemHealth
		trends []reporting.ResponseTimePoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { health = h.Reports.SystemHealth(gctx); return nil })
	g.Go(func() error { trends = h.Reports.ResponseTimeTrends(gctx, 7); return nil })
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{"health": health, "responseTimes": trends})
}

func (h Handlers) FollowupsPage(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		pending      []followups.Followup
		overdue      []followups.Followup
		appointments []care.Appointment
		providers    []care.Provider
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { pending = h.Followups.Pending(gctx); return nil })
	g.Go(func() error { overdue = h.Followups.Overdue(gctx); return nil })
	g.Go(func() error { appointments = h.Care.UpcomingAppointments(gctx); return nil })
	g.Go(func() error { providers = h.Care.Providers(gctx); return nil })
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{
		"pending":      pending,
		"overdue":      overdue,
		"appointments": appointments,
		"providers":    providers,
	})
}

// fixedInfraCosts is the flat monthly infrastructure spend shown alongside
// the variable AI costs. Presentation data, not stored anywhere.
type fixedCost struct {
	Name    string  `json:"name"`
	CostUSD float64 `json:"cost_usd"`
}

var fixedInfraCosts = []fixedCost{
	{Name: "Database hosting", CostUSD: 25},
	{Name: "App hosting", CostUSD: 20},
	{Name: "WhatsApp number", CostUSD: 15},
}

func (h Handlers) CostsPage(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		usage  reporting.AIUsageRollup
		months []reporting.MonthCost
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { usage = h.Reports.AIUsageRollup(gctx); return nil })
	g.Go(func() error { months = h.Reports.MonthlyCosts(gctx); return nil })
	_ = g.Wait()

	var fixedTotal float64
	for _, fc := range fixedInfraCosts {
		fixedTotal += fc.CostUSD
	}

	c.JSON(http.StatusOK, gin.H{
		"aiUsage":           usage,
		"monthlyCosts":      months,
		"fixedCosts":        fixedInfraCosts,
		"fixedMonthlyTotal": fixedTotal,
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
