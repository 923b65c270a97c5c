package httpapi

import "github.com/gin-gonic/gin"

// Register wires every dashboard route onto the engine.
// Keep this free of business logic; handlers delegate to internal services.
func (h Handlers) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		// page fan-outs
		api.GET("/dashboard", h.Dashboard)
		api.GET("/patients", h.PatientList)
		api.GET("/patients/:id", h.PatientDetail)
		api.GET("/analytics", h.Analytics)
		api.GET("/system-health", h.SystemHealthPage)
		api.GET("/followups", h.FollowupsPage)
		api.GET("/costs", h.CostsPage)

		// mutations and single-resource reads
		api.GET("/credits", h.CreditsOverview)
		api.POST("/credits", h.AdjustCredits)
		api.GET("/notes", h.ListNotes)
		api.POST("/notes", h.AddNote)
		api.GET("/routines", h.ListRoutines)
		api.PATCH("/routines", h.UpdateRoutineStatus)
		api.DELETE("/users/:id", h.DeleteUser)
		api.GET("/subscription", h.GetSubscription)
		api.POST("/subscription", h.Subscription)
	}
}
