package main

import (
	"vivebien-dashboard/internal/billing"
	"vivebien-dashboard/internal/care"
	"vivebien-dashboard/internal/config"
	"vivebien-dashboard/internal/followups"
	"vivebien-dashboard/internal/httpapi"
	"vivebien-dashboard/internal/notes"
	"vivebien-dashboard/internal/patients"
	"vivebien-dashboard/internal/reporting"
	"vivebien-dashboard/internal/routines"
	"vivebien-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

// registerRoutes constructs the domain services over the shared store and
// wires them to the HTTP surface. Keep this file free of business logic.
func registerRoutes(r *gin.Engine, cfg config.Config, st *store.Store) {
	h := httpapi.Handlers{
		Store:     st,
		Patients:  patients.NewService(st),
		Billing:   billing.NewService(st),
		Routines:  routines.NewService(st),
		Notes:     notes.NewService(notes.NewPGRepo(st)),
		Followups: followups.NewService(st),
		Care:      care.NewService(st),
		Reports:   reporting.NewService(reporting.NewPGRepo(st, cfg.DB.BreakerService), st.Log()),
	}
	h.Register(r)
}
