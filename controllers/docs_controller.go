package controllers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/services"
)

// DocsController serves the documentation page
type DocsController struct {
	services *services.Services
	pages    *pageBuilder
}

// NewDocsController creates a new docs controller
func NewDocsController(services *services.Services, pages *pageBuilder) *DocsController {
	return &DocsController{services: services, pages: pages}
}

// Index handles GET /docs
func (c *DocsController) Index(w http.ResponseWriter, r *http.Request) {
	guide, err := c.services.Docs.Guide()
	if err != nil {
		log.Error().Err(err).Msg("Failed to render operator guide")
		http.Error(w, "Failed to load documentation", http.StatusInternalServerError)
		return
	}

	renderTemplate(w, "docs", c.pages.build(r, "Documentation", "docs", guide))
}
