package controllers

import (
	"net/http"
	"strings"

	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

// CommandController handles prompt submissions
type CommandController struct {
	services *services.Services
}

// NewCommandController creates a new command controller
func NewCommandController(services *services.Services) *CommandController {
	return &CommandController{
		services: services,
	}
}

// submitResponse is the JSON form of a submission result
type submitResponse struct {
	Outcome services.Outcome    `json:"outcome"`
	Error   string              `json:"error,omitempty"`
	State   models.CommandState `json:"state"`
}

// outcomeStatus maps outcomes to HTTP status codes for JSON clients
var outcomeStatus = map[services.Outcome]int{
	services.OutcomeSubmitted: http.StatusOK,
	services.OutcomeIgnored:   http.StatusOK,
	services.OutcomeBusy:      http.StatusConflict,
	services.OutcomeInvalid:   http.StatusBadRequest,
	services.OutcomeThrottled: http.StatusTooManyRequests,
	services.OutcomeFailed:    http.StatusBadGateway,
	services.OutcomeCancelled: http.StatusServiceUnavailable,
}

// Submit handles POST /command
func (c *CommandController) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := sessionID(r)
	form := &models.CommandForm{Prompt: r.FormValue("prompt")}
	result := c.services.Command.Submit(r.Context(), id, form)

	if wantsJSON(r) {
		resp := submitResponse{Outcome: result.Outcome, State: c.services.Command.State(id)}
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
		writeJSON(w, outcomeStatus[result.Outcome], resp)
		return
	}

	switch result.Outcome {
	case services.OutcomeSubmitted:
		setFlash(r, "success", "Request submitted")
	case services.OutcomeFailed:
		setFlash(r, "error", "Submission failed. Your prompt has been kept so you can retry.")
	case services.OutcomeInvalid:
		setFlash(r, "error", result.Err.Error())
	case services.OutcomeBusy:
		setFlash(r, "warning", "A request is already being processed")
	case services.OutcomeThrottled:
		setFlash(r, "warning", "Too many requests, please wait a moment")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State handles GET /command/state
func (c *CommandController) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.services.Command.State(sessionID(r)))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
