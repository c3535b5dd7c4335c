package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AXI0MH1VE/State-Inverant/models"
)

// RequestLogRepository handles operator request log persistence
type RequestLogRepository interface {
	Create(ctx context.Context, entry *models.RequestLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.RequestLogEntry, error)
}

type sqliteRequestLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db *sql.DB) RequestLogRepository {
	return &sqliteRequestLogRepository{db: db, now: time.Now}
}

// Create inserts a new request log entry, stamping it if no timestamp is set
func (r *sqliteRequestLogRepository) Create(ctx context.Context, entry *models.RequestLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	query := `
		INSERT INTO request_log (timestamp, user_email, method, path, form_data, user_agent, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		entry.Timestamp,
		entry.UserEmail,
		entry.Method,
		entry.Path,
		entry.FormData,
		entry.UserAgent,
		entry.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get request log entry ID: %w", err)
	}
	entry.ID = id

	return nil
}

// ListRecent returns up to limit entries, newest first
func (r *sqliteRequestLogRepository) ListRecent(ctx context.Context, limit int) ([]models.RequestLogEntry, error) {
	if limit <= 0 {
		return []models.RequestLogEntry{}, nil
	}

	query := `
		SELECT id, timestamp, user_email, method, path, form_data, user_agent, ip_address
		FROM request_log
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query request log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.RequestLogEntry, 0, limit)
	for rows.Next() {
		var entry models.RequestLogEntry
		var formData, userAgent, ipAddress sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.UserEmail,
			&entry.Method,
			&entry.Path,
			&formData,
			&userAgent,
			&ipAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request log entry: %w", err)
		}

		entry.FormData = formData.String
		entry.UserAgent = userAgent.String
		entry.IPAddress = ipAddress.String

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating request log: %w", err)
	}

	return entries, nil
}
