package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

// requestLogLimit is the number of operator request log rows on the audit page
const requestLogLimit = 50

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
	streamPongWait   = streamPingPeriod + 10*time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// AuditController handles the audit log pages, export and live stream
type AuditController struct {
	services *services.Services
	pages    *pageBuilder
}

// NewAuditController creates a new audit controller
func NewAuditController(services *services.Services, pages *pageBuilder) *AuditController {
	return &AuditController{
		services: services,
		pages:    pages,
	}
}

// AuditPageData is the audit page template data
type AuditPageData struct {
	Entries    []models.AuditEntry
	RequestLog []models.RequestLogEntry
	Live       bool
}

// StreamMessage is sent to live stream clients
type StreamMessage struct {
	Type    string         `json:"type"`
	Payload AuditEntryView `json:"payload"`
}

// AuditEntryView is an audit entry with its rendering attributes
type AuditEntryView struct {
	models.AuditEntry
	TimeOfDay      string `json:"time_of_day"`
	IndicatorClass string `json:"indicator_class"`
	BadgeClass     string `json:"badge_class"`
}

func newAuditEntryView(entry models.AuditEntry) AuditEntryView {
	return AuditEntryView{
		AuditEntry:     entry,
		TimeOfDay:      entry.GetTimeOfDay(),
		IndicatorClass: entry.IndicatorClass(),
		BadgeClass:     entry.BadgeClass(),
	}
}

// Index handles GET /audit
func (c *AuditController) Index(w http.ResponseWriter, r *http.Request) {
	entries, err := c.services.Audit.Snapshot(r.Context())
	if err != nil {
		http.Error(w, "Failed to load audit stream: "+err.Error(), http.StatusInternalServerError)
		return
	}

	requestLog, err := c.services.RequestLog.ListRecent(r.Context(), requestLogLimit)
	if err != nil {
		http.Error(w, "Failed to load request log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := &AuditPageData{
		Entries:    entries,
		RequestLog: requestLog,
		Live:       c.services.Audit.IsLive(),
	}

	renderTemplate(w, "audit", c.pages.build(r, "Audit Log", "audit", data))
}

// Export handles GET /audit/export as JSON, or as a PDF report with ?format=pdf
func (c *AuditController) Export(w http.ResponseWriter, r *http.Request) {
	export, err := c.services.Audit.Export(r.Context())
	if err != nil {
		http.Error(w, "Failed to export audit log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	name := "audit-log-" + models.FormatDate(export.GeneratedAt)

	if r.URL.Query().Get("format") == "pdf" {
		report, err := services.RenderAuditReport(export)
		if err != nil {
			http.Error(w, "Failed to render audit report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".pdf"))
		w.Write(report)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".json"))
	writeJSON(w, http.StatusOK, export)
}

// Stream handles GET /audit/stream, pushing new entries over a WebSocket
func (c *AuditController) Stream(w http.ResponseWriter, r *http.Request) {
	if !c.services.Audit.IsLive() {
		http.Error(w, services.ErrLiveUnavailable.Error(), http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade audit stream connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	entries, err := c.services.Audit.Subscribe(ctx)
	if err != nil {
		if errors.Is(err, services.ErrLiveUnavailable) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()))
		}
		return
	}

	log.Debug().Str("remote", r.RemoteAddr).Msg("Audit stream client connected")
	go readPump(conn, cancel)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(StreamMessage{Type: "audit_entry", Payload: newAuditEntryView(entry)}); err != nil {
				log.Debug().Err(err).Msg("Audit stream client write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump discards client messages and cancels the stream when the client goes away
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
