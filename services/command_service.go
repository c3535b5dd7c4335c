package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/AXI0MH1VE/State-Inverant/models"
)

// CommandServiceName labels audit entries recorded for submissions
const CommandServiceName = "Command Interface"

// CommandService interface defines the command interface operations
type CommandService interface {
	State(sessionID string) models.CommandState
	Submit(ctx context.Context, sessionID string, form *models.CommandForm) SubmitResult
	Release(sessionID string)
	Prune(maxIdle time.Duration) int
}

// CommandOptions configures the command service
type CommandOptions struct {
	Delay     time.Duration
	RateLimit rate.Limit
	Burst     int
}

// commandService implements CommandService interface
type commandService struct {
	mu        sync.Mutex
	bars      map[string]*CommandBar
	submitter Submitter
	recorder  AuditRecorder
	limiter   *rate.Limiter
	delay     time.Duration
	now       func() time.Time
}

// NewCommandService creates a new command service
func NewCommandService(submitter Submitter, recorder AuditRecorder, opts CommandOptions) CommandService {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &commandService{
		bars:      make(map[string]*CommandBar),
		submitter: submitter,
		recorder:  recorder,
		limiter:   rate.NewLimiter(limit, burst),
		delay:     opts.Delay,
		now:       time.Now,
	}
}

// bar returns the session's command bar, mounting one on first use
func (s *commandService) bar(sessionID string) *CommandBar {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bars[sessionID]
	if !ok {
		b = NewCommandBar(s.submitter, s.delay)
		s.bars[sessionID] = b
	}
	return b
}

// State returns the session's command bar state without mounting a new bar
func (s *commandService) State(sessionID string) models.CommandState {
	s.mu.Lock()
	b, ok := s.bars[sessionID]
	s.mu.Unlock()

	if !ok {
		return models.CommandState{}
	}
	return b.State()
}

// Submit sets the prompt on the session's bar and submits it
func (s *commandService) Submit(ctx context.Context, sessionID string, form *models.CommandForm) SubmitResult {
	if errs := form.Validate(); errs.HasErrors() {
		return SubmitResult{Outcome: OutcomeInvalid, Prompt: form.Prompt, Err: errs}
	}

	b := s.bar(sessionID)
	if !b.SetPrompt(form.Prompt) {
		return SubmitResult{Outcome: OutcomeBusy, Prompt: form.Prompt}
	}

	// Blank prompts are ignored by the bar and do not spend a token
	if !form.IsBlank() && !s.limiter.Allow() {
		log.Warn().Str("session", shortID(sessionID)).Msg("Prompt submission throttled")
		return SubmitResult{Outcome: OutcomeThrottled, Prompt: form.Prompt}
	}

	result := b.Submit(ctx)

	switch result.Outcome {
	case OutcomeSubmitted:
		log.Info().
			Str("session", shortID(sessionID)).
			Int("prompt_length", len(result.Prompt)).
			Msg("Prompt submitted")
		s.record(ctx, models.StatusSafe, "Prompt submitted")
	case OutcomeFailed:
		log.Error().
			Err(result.Err).
			Str("session", shortID(sessionID)).
			Msg("Error submitting prompt")
		s.record(ctx, models.StatusWarning, "Prompt submission failed")
	case OutcomeCancelled:
		log.Warn().Str("session", shortID(sessionID)).Msg("Prompt submission cancelled")
	}

	return result
}

func (s *commandService) record(ctx context.Context, status models.AuditStatus, message string) {
	if s.recorder == nil {
		return
	}
	// The request context may already be done; recording must not depend on it
	err := s.recorder.Record(context.WithoutCancel(ctx), models.AuditEntry{
		Timestamp: s.now(),
		Service:   CommandServiceName,
		Status:    status,
		Message:   message,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to record audit entry")
	}
}

// Release unmounts and forgets the session's bar
func (s *commandService) Release(sessionID string) {
	s.mu.Lock()
	b, ok := s.bars[sessionID]
	delete(s.bars, sessionID)
	s.mu.Unlock()

	if ok {
		b.Unmount()
	}
}

// Prune releases bars idle for longer than maxIdle and returns how many were released
func (s *commandService) Prune(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var stale []*CommandBar
	for id, b := range s.bars {
		if b.idleSince(cutoff) {
			stale = append(stale, b)
			delete(s.bars, id)
		}
	}
	s.mu.Unlock()

	for _, b := range stale {
		b.Unmount()
	}
	return len(stale)
}

// SimulatedSubmitter stands in for the gateway call and only logs the prompt
type SimulatedSubmitter struct{}

// Submit logs the prompt
func (SimulatedSubmitter) Submit(_ context.Context, prompt string) error {
	log.Debug().Str("prompt", prompt).Msg("Submitting prompt")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
