package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AXI0MH1VE/State-Inverant/models"
)

// Outcome describes how a submission ended
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"   // blank prompt, nothing happened
	OutcomeBusy      Outcome = "busy"      // a submission was already in flight
	OutcomeInvalid   Outcome = "invalid"   // prompt failed validation
	OutcomeThrottled Outcome = "throttled" // rate limit exceeded
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled" // caller went away during the wait
)

// SubmitResult is the explicit result of a submission
type SubmitResult struct {
	Outcome Outcome
	Prompt  string
	Err     error
}

// OK reports whether the prompt was submitted
func (r SubmitResult) OK() bool {
	return r.Outcome == OutcomeSubmitted
}

// Submitter performs the submission side effect
type Submitter interface {
	Submit(ctx context.Context, prompt string) error
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, prompt string) error

// Submit calls f(ctx, prompt)
func (f SubmitterFunc) Submit(ctx context.Context, prompt string) error {
	return f(ctx, prompt)
}

// CommandBar holds the prompt and busy flag of one command interface.
//
// Submissions are serialized by the busy flag: while one is in flight,
// further submissions return OutcomeBusy and the prompt cannot be edited.
type CommandBar struct {
	mu        sync.Mutex
	prompt    string
	loading   bool
	mounted   bool
	lastUsed  time.Time
	submitter Submitter
	delay     time.Duration
	after     func(time.Duration) <-chan time.Time
	now       func() time.Time
}

// NewCommandBar creates a mounted command bar
func NewCommandBar(submitter Submitter, delay time.Duration) *CommandBar {
	return &CommandBar{
		mounted:   true,
		lastUsed:  time.Now(),
		submitter: submitter,
		delay:     delay,
		after:     time.After,
		now:       time.Now,
	}
}

// SetPrompt replaces the prompt. It is refused while a submission is in flight.
func (b *CommandBar) SetPrompt(prompt string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loading {
		return false
	}
	b.prompt = prompt
	b.lastUsed = b.now()
	return true
}

// State returns a snapshot of the bar
func (b *CommandBar) State() models.CommandState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return models.CommandState{
		Prompt:    b.prompt,
		IsLoading: b.loading,
		CanSubmit: !b.loading && strings.TrimSpace(b.prompt) != "",
	}
}

// Unmount detaches the bar. A submission finishing afterwards leaves the prompt alone.
func (b *CommandBar) Unmount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mounted = false
}

// Mounted reports whether the bar is still attached
func (b *CommandBar) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// Submit sends the current prompt, waits the configured delay and clears the
// prompt. The busy flag is reset on every exit path. On failure or
// cancellation the prompt is kept so the user can retry.
func (b *CommandBar) Submit(ctx context.Context) SubmitResult {
	b.mu.Lock()
	if strings.TrimSpace(b.prompt) == "" {
		b.mu.Unlock()
		return SubmitResult{Outcome: OutcomeIgnored}
	}
	if b.loading {
		prompt := b.prompt
		b.mu.Unlock()
		return SubmitResult{Outcome: OutcomeBusy, Prompt: prompt}
	}
	b.loading = true
	b.lastUsed = b.now()
	prompt := b.prompt
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.loading = false
		b.lastUsed = b.now()
		b.mu.Unlock()
	}()

	if err := b.send(ctx, prompt); err != nil {
		return SubmitResult{Outcome: OutcomeFailed, Prompt: prompt, Err: err}
	}

	select {
	case <-b.after(b.delay):
	case <-ctx.Done():
		return SubmitResult{Outcome: OutcomeCancelled, Prompt: prompt, Err: ctx.Err()}
	}

	b.mu.Lock()
	if b.mounted {
		b.prompt = ""
	}
	b.mu.Unlock()

	return SubmitResult{Outcome: OutcomeSubmitted, Prompt: prompt}
}

// send calls the submitter, turning a panic into an error
func (b *CommandBar) send(ctx context.Context, prompt string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submitter panicked: %v", r)
		}
	}()
	return b.submitter.Submit(ctx, prompt)
}

// idleSince reports whether the bar has been idle since before t
func (b *CommandBar) idleSince(t time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.loading && b.lastUsed.Before(t)
}
