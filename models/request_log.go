package models

import "time"

// RequestLogEntry represents a single HTTP mutation event kept for operators
type RequestLogEntry struct {
	ID        int64
	Timestamp time.Time
	UserEmail string
	Method    string
	Path      string
	FormData  string
	UserAgent string
	IPAddress string
}
