package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuditStatus is the safety classification carried by an audit entry
type AuditStatus string

const (
	StatusSafe    AuditStatus = "safe"
	StatusWarning AuditStatus = "warning"
	StatusDanger  AuditStatus = "danger"
)

// ErrInvalidStatus is returned for statuses outside the closed enumeration
var ErrInvalidStatus = errors.New("invalid audit status")

// AuditEntry represents a single logged AI interaction outcome
type AuditEntry struct {
	ID        string      `json:"id" validate:"notblank"`
	Timestamp time.Time   `json:"timestamp" validate:"required"`
	Service   string      `json:"service" validate:"notblank"`
	Status    AuditStatus `json:"status" validate:"oneof=safe warning danger"`
	Message   string      `json:"message"`
}

// ParseAuditStatus converts a raw string into an AuditStatus
func ParseAuditStatus(raw string) (AuditStatus, error) {
	status := AuditStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// IsValid reports whether the status is one of safe, warning or danger
func (s AuditStatus) IsValid() bool {
	switch s {
	case StatusSafe, StatusWarning, StatusDanger:
		return true
	}
	return false
}

// IndicatorClass returns the CSS class of the status dot.
// Unknown statuses fall back to neutral gray.
func (s AuditStatus) IndicatorClass() string {
	switch s {
	case StatusSafe:
		return "bg-green-500"
	case StatusWarning:
		return "bg-yellow-500"
	case StatusDanger:
		return "bg-red-500"
	default:
		return "bg-gray-400"
	}
}

// BadgeClass returns the CSS classes of the service badge
func (s AuditStatus) BadgeClass() string {
	switch s {
	case StatusSafe:
		return "axiom-status-safe"
	case StatusWarning:
		return "axiom-status-warning"
	case StatusDanger:
		return "axiom-status-danger"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

// Validate validates the audit entry
func (e *AuditEntry) Validate() ValidationErrors {
	return validateStruct(e)
}

// GetTimeOfDay returns the timestamp as local time-of-day text
func (e AuditEntry) GetTimeOfDay() string {
	return FormatTimeOfDay(e.Timestamp)
}

// IndicatorClass is a template helper for the status dot
func (e AuditEntry) IndicatorClass() string {
	return e.Status.IndicatorClass()
}

// BadgeClass is a template helper for the service badge
func (e AuditEntry) BadgeClass() string {
	return e.Status.BadgeClass()
}
