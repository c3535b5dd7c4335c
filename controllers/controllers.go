package controllers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/authenticator"
	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

var (
	templatesDir     string
	templatesDirOnce sync.Once
)

// findTemplatesDir looks for templates/ in the working directory and its parents
func findTemplatesDir() string {
	templatesDirOnce.Do(func() {
		templatesDir = "templates"

		dir, err := os.Getwd()
		if err != nil {
			return
		}
		for {
			candidate := filepath.Join(dir, "templates")
			if _, err := os.Stat(filepath.Join(candidate, "layout.html")); err == nil {
				templatesDir = candidate
				return
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}
			dir = parent
		}
	})
	return templatesDir
}

var templateFuncs = template.FuncMap{
	"add":            func(a, b int) int { return a + b },
	"timeOfDay":      models.FormatTimeOfDay,
	"formatDateTime": models.FormatDateTime,
}

// renderTemplate parses the layout with the page template and renders it with the provided data
func renderTemplate(w http.ResponseWriter, page string, data interface{}) error {
	return renderTemplateWithStatus(w, http.StatusOK, page, data)
}

// renderTemplateWithStatus renders into a buffer first so a failing template never sends a partial page
func renderTemplateWithStatus(w http.ResponseWriter, statusCode int, page string, data interface{}) error {
	dir := findTemplatesDir()

	tmpl, err := template.New(page).Funcs(templateFuncs).ParseFiles(
		filepath.Join(dir, "layout.html"),
		filepath.Join(dir, page+".html"),
	)
	if err != nil {
		log.Error().Err(err).Str("template", page).Msg("Failed to parse template")
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Error().Err(err).Str("template", page).Msg("Failed to render template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err = buf.WriteTo(w)
	return err
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Options configures the controllers
type Options struct {
	Version      string
	AuthProvider authenticator.Provider
}

// Controllers holds all controller instances
type Controllers struct {
	Auth      *AuthController
	Dashboard *DashboardController
	Command   *CommandController
	Audit     *AuditController
	Docs      *DocsController
	Health    *HealthController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, opts Options) *Controllers {
	pages := &pageBuilder{version: opts.Version, authEnabled: opts.AuthProvider != nil}

	return &Controllers{
		Auth:      NewAuthController(opts.AuthProvider, services),
		Dashboard: NewDashboardController(services, pages),
		Command:   NewCommandController(services),
		Audit:     NewAuditController(services, pages),
		Docs:      NewDocsController(services, pages),
		Health:    NewHealthController(opts.Version),
	}
}
