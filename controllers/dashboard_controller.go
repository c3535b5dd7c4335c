package controllers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

// DashboardController handles dashboard-related requests
type DashboardController struct {
	services *services.Services
	pages    *pageBuilder
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services, pages *pageBuilder) *DashboardController {
	return &DashboardController{
		services: services,
		pages:    pages,
	}
}

// DashboardData is the dashboard template data
type DashboardData struct {
	Command models.CommandState
	Entries []models.AuditEntry
	Live    bool
}

// Index handles GET /
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	entries, err := c.services.Audit.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load audit stream")
		http.Error(w, "Failed to load audit stream", http.StatusInternalServerError)
		return
	}

	data := &DashboardData{
		Command: c.services.Command.State(sessionID(r)),
		Entries: entries,
		Live:    c.services.Audit.IsLive(),
	}

	renderTemplate(w, "dashboard", c.pages.build(r, "Axiom Hive - Provably Safe AI", "dashboard", data))
}
