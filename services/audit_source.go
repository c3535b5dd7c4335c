package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AXI0MH1VE/State-Inverant/models"
)

// ErrLiveUnavailable is returned when the configured source cannot stream updates
var ErrLiveUnavailable = errors.New("live updates not available")

// AuditSource provides the entries shown by the audit stream
type AuditSource interface {
	// Entries returns the current entries, most recent first
	Entries(ctx context.Context) ([]models.AuditEntry, error)
}

// AuditSubscriber is implemented by sources that can push new entries
type AuditSubscriber interface {
	// Subscribe delivers entries published after the call until ctx is done
	Subscribe(ctx context.Context) <-chan models.AuditEntry
}

// AuditRecorder accepts new entries
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

// FixtureSource returns a fixed snapshot of three guardian entries
type FixtureSource struct {
	Now func() time.Time
}

// NewFixtureSource creates a fixture source using the wall clock
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{Now: time.Now}
}

// Entries returns the fixture entries, spaced two seconds apart
func (s *FixtureSource) Entries(_ context.Context) ([]models.AuditEntry, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	return []models.AuditEntry{
		{
			ID:        "1",
			Timestamp: now,
			Service:   "Legal Guardian",
			Status:    models.StatusSafe,
			Message:   "Request compliant with ASL-1.0",
		},
		{
			ID:        "2",
			Timestamp: now.Add(-2 * time.Second),
			Service:   "Safety Guardian",
			Status:    models.StatusSafe,
			Message:   "No toxicity detected",
		},
		{
			ID:        "3",
			Timestamp: now.Add(-4 * time.Second),
			Service:   "Drone Fleet",
			Status:    models.StatusSafe,
			Message:   "Response generated successfully",
		},
	}, nil
}

// subscriberBuffer is the per-subscriber channel capacity
const subscriberBuffer = 16

// LiveSource keeps a bounded, most-recent-first buffer of recorded entries
// and fans new entries out to subscribers.
type LiveSource struct {
	mu          sync.RWMutex
	capacity    int
	entries     []models.AuditEntry
	subscribers map[chan models.AuditEntry]struct{}
	now         func() time.Time
}

// NewLiveSource creates a live source retaining at most capacity entries
func NewLiveSource(capacity int) *LiveSource {
	if capacity <= 0 {
		capacity = 1
	}
	return &LiveSource{
		capacity:    capacity,
		entries:     make([]models.AuditEntry, 0, capacity),
		subscribers: make(map[chan models.AuditEntry]struct{}),
		now:         time.Now,
	}
}

// Entries returns a copy of the buffered entries
func (s *LiveSource) Entries(_ context.Context) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.AuditEntry, len(s.entries))
	copy(entries, s.entries)
	return entries, nil
}

// Record validates and publishes an entry. Missing ID and timestamp are filled in
// and the status is normalized.
func (s *LiveSource) Record(_ context.Context, entry models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	status, err := models.ParseAuditStatus(string(entry.Status))
	if err != nil {
		return err
	}
	entry.Status = status
	if errs := entry.Validate(); errs.HasErrors() {
		return fmt.Errorf("invalid audit entry: %w", errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Rebuild rather than shift in place so slices handed out by Entries stay untouched
	keep := len(s.entries)
	if keep >= s.capacity {
		keep = s.capacity - 1
	}
	next := make([]models.AuditEntry, 0, s.capacity)
	next = append(next, entry)
	next = append(next, s.entries[:keep]...)
	s.entries = next

	for ch := range s.subscribers {
		select {
		case ch <- entry:
		default:
			// slow subscriber, drop
		}
	}

	return nil
}

// Subscribe registers a subscriber until ctx is done; the channel is then closed
func (s *LiveSource) Subscribe(ctx context.Context) <-chan models.AuditEntry {
	ch := make(chan models.AuditEntry, subscriberBuffer)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// SubscriberCount returns the number of active subscribers
func (s *LiveSource) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
