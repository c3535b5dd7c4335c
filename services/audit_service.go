package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/config"
	"github.com/AXI0MH1VE/State-Inverant/models"
)

// ErrUnknownSource is returned for an unsupported audit source kind
var ErrUnknownSource = errors.New("unknown audit source")

// AuditService interface defines the audit stream operations
type AuditService interface {
	Snapshot(ctx context.Context) ([]models.AuditEntry, error)
	Subscribe(ctx context.Context) (<-chan models.AuditEntry, error)
	Record(ctx context.Context, entry models.AuditEntry) error
	Export(ctx context.Context) (*AuditExport, error)
	IsLive() bool
}

// AuditExport is the downloadable form of the audit stream
type AuditExport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Count       int                 `json:"count"`
	Entries     []models.AuditEntry `json:"entries"`
}

// auditService implements AuditService interface
type auditService struct {
	source AuditSource
	now    func() time.Time
}

// NewAuditService creates a new audit service over the given source
func NewAuditService(source AuditSource) AuditService {
	return &auditService{source: source, now: time.Now}
}

// NewAuditSource builds the source named by kind
func NewAuditSource(kind string, bufferSize int) (AuditSource, error) {
	switch kind {
	case config.AuditSourceFixture:
		return NewFixtureSource(), nil
	case config.AuditSourceLive:
		return NewLiveSource(bufferSize), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

// Snapshot returns the entries to render. The list is taken as-is from the
// source and never re-sorted.
func (s *auditService) Snapshot(ctx context.Context) ([]models.AuditEntry, error) {
	entries, err := s.source.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}

// Subscribe streams new entries when the source supports it
func (s *auditService) Subscribe(ctx context.Context) (<-chan models.AuditEntry, error) {
	sub, ok := s.source.(AuditSubscriber)
	if !ok {
		return nil, ErrLiveUnavailable
	}
	return sub.Subscribe(ctx), nil
}

// Record forwards the entry to the source if it accepts new entries
func (s *auditService) Record(ctx context.Context, entry models.AuditEntry) error {
	recorder, ok := s.source.(AuditRecorder)
	if !ok {
		log.Debug().Str("service", entry.Service).Msg("Audit source is static, entry not recorded")
		return nil
	}
	return recorder.Record(ctx, entry)
}

// Export returns the current snapshot with export metadata
func (s *auditService) Export(ctx context.Context) (*AuditExport, error) {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &AuditExport{
		GeneratedAt: s.now(),
		Count:       len(entries),
		Entries:     entries,
	}, nil
}

// IsLive reports whether the source can push updates
func (s *auditService) IsLive() bool {
	_, ok := s.source.(AuditSubscriber)
	return ok
}
