package controllers

import (
	"net/http"
	"time"
)

// HealthController reports service health
type HealthController struct {
	version string
	now     func() time.Time
}

// NewHealthController creates a new health controller
func NewHealthController(version string) *HealthController {
	return &HealthController{version: version, now: time.Now}
}

// HealthStatus is the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Check handles GET /health
func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Service:   "axiom-hive",
		Version:   c.version,
		Timestamp: c.now().UTC(),
	})
}
