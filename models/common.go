package models

import (
	"time"
)

// AppName is displayed in the page header
const AppName = "Axiom Hive"

// FlashMessage represents a flash message for user feedback
type FlashMessage struct {
	Type    string `json:"type"` // "success", "error", "warning", "info"
	Message string `json:"message"`
}

// NavLink is a static link in the page header
type NavLink struct {
	Path  string
	Label string
	Page  string
}

// NavLinks are the header links, in display order
var NavLinks = []NavLink{
	{Path: "/", Label: "Dashboard", Page: "dashboard"},
	{Path: "/audit", Label: "Audit Log", Page: "audit"},
	{Path: "/docs", Label: "Documentation", Page: "docs"},
}

// PageData represents common data passed to templates
type PageData struct {
	AppName      string        `json:"app_name"`
	Title        string        `json:"title"`
	CurrentPage  string        `json:"current_page"`
	Version      string        `json:"version"`
	UserName     string        `json:"user_name,omitempty"`
	AuthEnabled  bool          `json:"auth_enabled"`
	FlashMessage *FlashMessage `json:"flash_message,omitempty"`
	NavLinks     []NavLink     `json:"-"`
	Data         interface{}   `json:"data,omitempty"`
}

// FormatTimeOfDay formats a time as HH:MM:SS in the server's local zone
func FormatTimeOfDay(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// FormatDate formats a time as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTime formats a time as YYYY-MM-DD HH:MM
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
