package httpapi

import (
	"errors"
	"net/http"

	"vivebien-dashboard/internal/billing"
	"vivebien-dashboard/internal/care"
	"vivebien-dashboard/internal/followups"
	"vivebien-dashboard/internal/notes"
	"vivebien-dashboard/internal/patients"
	"vivebien-dashboard/internal/reporting"
	"vivebien-dashboard/internal/routines"
	"vivebien-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Store     *store.Store
	Patients  *patients.Service
	Billing   *billing.Service
	Routines  *routines.Service
	Notes     *notes.Service
	Followups *followups.Service
	Care      *care.Service
	Reports   *reporting.Service
}

// fail writes the error envelope the dashboard client expects, mapping
// domain errors onto HTTP statuses: validation 400, missing rows 404,
// everything else (including a missing database) 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, store.ErrNotConfigured):
		msg = "Database not configured"
	case errors.Is(err, billing.ErrInvalidArgument),
		errors.Is(err, billing.ErrInvalidAction),
		errors.Is(err, patients.ErrInvalidArgument),
		errors.Is(err, routines.ErrInvalidStatus),
		errors.Is(err, notes.ErrInvalidNote):
		status = http.StatusBadRequest
	case errors.Is(err, billing.ErrNoBillingAccount),
		errors.Is(err, patients.ErrNotFound),
		errors.Is(err, routines.ErrNotFound):
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// --- Credits ---

type adjustCreditsRequest struct {
	UserID      string `json:"userId"`
	Amount      *int   `json:"amount"`
	Description string `json:"description"`
}

// AdjustCredits adds or deducts credits and appends the matching ledger row.
func (h Handlers) AdjustCredits(c *gin.Context) {
	var req adjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Amount == nil || req.Description == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId, amount and description are required"})
		return
	}
	newBalance, err := h.Billing.AdjustCredits(c.Request.Context(), req.UserID, *req.Amount, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "newBalance": newBalance})
}

// CreditsOverview lists every billing account with the aggregate stats block.
func (h Handlers) CreditsOverview(c *gin.Context) {
	accounts, stats := h.Billing.AccountsOverview(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "stats": stats})
}

// --- Subscription ---

type subscriptionRequest struct {
	UserID        string `json:"userId"`
	Action        string `json:"action"`
	CancelReason  string `json:"cancelReason"`
	ExtensionDays int    `json:"extensionDays"`
}

func (h Handlers) Subscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Action == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId and action are required"})
		return
	}
	message, err := h.Billing.Subscription(c.Request.Context(), billing.SubscriptionRequest{
		UserID:        req.UserID,
		Action:        req.Action,
		CancelReason:  req.CancelReason,
		ExtensionDays: req.ExtensionDays,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// GetSubscription returns the billing snapshot for one patient, or the
// no-subscription default when no account row exists.
func (h Handlers) GetSubscription(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		return
	}
	detail, ok, err := h.Billing.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"subscription_status": "none", "credits_balance": 0})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// --- Notes ---

type addNoteRequest struct {
	UserID    string   `json:"userId"`
	Note      string   `json:"note"`
	CreatedBy string   `json:"createdBy"`
	Tags      []string `json:"tags"`
}

func (h Handlers) AddNote(c *gin.Context) {
	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Note == "" || req.CreatedBy == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId, note and createdBy are required"})
		return
	}
	n, err := h.Notes.Add(c.Request.Context(), req.UserID, req.Note, req.CreatedBy, req.Tags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "note": n})
}

func (h Handlers) ListNotes(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": h.Notes.ListByUser(c.Request.Context(), userID)})
}

// --- Routines ---

type updateRoutineRequest struct {
	RoutineID string `json:"routineId"`
	Status    string `json:"status"`
}

func (h Handlers) UpdateRoutineStatus(c *gin.Context) {
	var req updateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.RoutineID == "" || req.Status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "routineId and status are required"})
		return
	}
	routine, err := h.Routines.UpdateStatus(c.Request.Context(), req.RoutineID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "routine": routine})
}

func (h Handlers) ListRoutines(c *gin.Context) {
	if userID := c.Query("userId"); userID != "" {
		c.JSON(http.StatusOK, gin.H{"routines": h.Routines.ListByUser(c.Request.Context(), userID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routines": h.Routines.ListAll(c.Request.Context())})
}

// --- Users ---

// DeleteUser soft-deletes a patient. The client confirms before calling.
func (h Handlers) DeleteUser(c *gin.Context) {
	if err := h.Patients.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Health ---

func (h Handlers) Healthz(c *gin.Context) {
	dbStatus := "ok"
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		dbStatus = err.Error()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": dbStatus})
}
