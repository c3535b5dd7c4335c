package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// blockingSubmitter records calls and blocks until released
type blockingSubmitter struct {
	calls   atomic.Int32
	started chan string
	release chan error
}

func newBlockingSubmitter() *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan string, 1),
		release: make(chan error, 1),
	}
}

func (s *blockingSubmitter) Submit(_ context.Context, prompt string) error {
	s.calls.Add(1)
	s.started <- prompt
	return <-s.release
}

// CommandBarTestSuite is a test suite for the CommandBar submission lifecycle
type CommandBarTestSuite struct {
	suite.Suite
	submitter *blockingSubmitter
	delay     chan time.Time
	bar       *CommandBar
}

// SetupTest creates a bar whose delay is driven by the test
func (suite *CommandBarTestSuite) SetupTest() {
	suite.submitter = newBlockingSubmitter()
	suite.delay = make(chan time.Time, 1)
	suite.bar = NewCommandBar(suite.submitter, 2*time.Second)
	suite.bar.after = func(time.Duration) <-chan time.Time { return suite.delay }
}

// submitAsync runs Submit in the background and returns the result channel
func (suite *CommandBarTestSuite) submitAsync(ctx context.Context) <-chan SubmitResult {
	done := make(chan SubmitResult, 1)
	go func() { done <- suite.bar.Submit(ctx) }()
	return done
}

func (suite *CommandBarTestSuite) awaitResult(done <-chan SubmitResult) SubmitResult {
	select {
	case result := <-done:
		return result
	case <-time.After(2 * time.Second):
		suite.FailNow("submission did not finish")
		return SubmitResult{}
	}
}

// TestInitialState tests that a new bar is empty and idle
func (suite *CommandBarTestSuite) TestInitialState() {
	state := suite.bar.State()

	assert.Equal(suite.T(), "", state.Prompt)
	assert.False(suite.T(), state.IsLoading)
	assert.False(suite.T(), state.CanSubmit)
	assert.True(suite.T(), suite.bar.Mounted())
}

// TestSubmit_BlankPromptIgnored tests that blank prompts never set the busy flag
func (suite *CommandBarTestSuite) TestSubmit_BlankPromptIgnored() {
	for _, prompt := range []string{"", "   ", "\t\n"} {
		require.True(suite.T(), suite.bar.SetPrompt(prompt))

		result := suite.bar.Submit(context.Background())

		assert.Equal(suite.T(), OutcomeIgnored, result.Outcome)
		state := suite.bar.State()
		assert.Equal(suite.T(), prompt, state.Prompt)
		assert.False(suite.T(), state.IsLoading)
	}
	assert.Equal(suite.T(), int32(0), suite.submitter.calls.Load())
}

// TestSubmit_Lifecycle tests busy during submission and cleared prompt afterwards
func (suite *CommandBarTestSuite) TestSubmit_Lifecycle() {
	suite.bar.SetPrompt("Explain compliance rules")
	require.True(suite.T(), suite.bar.State().CanSubmit)

	done := suite.submitAsync(context.Background())

	assert.Equal(suite.T(), "Explain compliance rules", <-suite.submitter.started)
	state := suite.bar.State()
	assert.True(suite.T(), state.IsLoading)
	assert.False(suite.T(), state.CanSubmit)
	assert.True(suite.T(), state.InputDisabled())
	assert.True(suite.T(), state.SubmitDisabled())

	// While busy, edits and second submissions are refused
	assert.False(suite.T(), suite.bar.SetPrompt("something else"))
	busy := suite.bar.Submit(context.Background())
	assert.Equal(suite.T(), OutcomeBusy, busy.Outcome)

	suite.submitter.release <- nil

	// Still busy while the delay runs
	assert.Eventually(suite.T(), func() bool { return suite.bar.State().IsLoading }, time.Second, 5*time.Millisecond)
	suite.delay <- time.Now()

	result := suite.awaitResult(done)
	assert.True(suite.T(), result.OK())
	assert.Equal(suite.T(), "Explain compliance rules", result.Prompt)
	assert.NoError(suite.T(), result.Err)

	state = suite.bar.State()
	assert.Equal(suite.T(), "", state.Prompt)
	assert.False(suite.T(), state.IsLoading)
	assert.Equal(suite.T(), int32(1), suite.submitter.calls.Load())
}

// TestSubmit_FailurePreservesPrompt tests that failed submissions keep the input
func (suite *CommandBarTestSuite) TestSubmit_FailurePreservesPrompt() {
	suite.bar.SetPrompt("Explain compliance rules")
	suite.submitter.release <- errors.New("gateway unavailable")

	result := suite.bar.Submit(context.Background())

	assert.Equal(suite.T(), OutcomeFailed, result.Outcome)
	assert.EqualError(suite.T(), result.Err, "gateway unavailable")
	state := suite.bar.State()
	assert.Equal(suite.T(), "Explain compliance rules", state.Prompt)
	assert.False(suite.T(), state.IsLoading)
	assert.True(suite.T(), state.CanSubmit)
}

// TestSubmit_PanicIsFailure tests that a panicking submitter still resets the busy flag
func (suite *CommandBarTestSuite) TestSubmit_PanicIsFailure() {
	bar := NewCommandBar(SubmitterFunc(func(context.Context, string) error {
		panic("boom")
	}), 0)
	bar.SetPrompt("hello")

	result := bar.Submit(context.Background())

	assert.Equal(suite.T(), OutcomeFailed, result.Outcome)
	assert.Contains(suite.T(), result.Err.Error(), "boom")
	assert.False(suite.T(), bar.State().IsLoading)
	assert.Equal(suite.T(), "hello", bar.State().Prompt)
}

// TestSubmit_CancelledDuringDelay tests that cancellation keeps the prompt
func (suite *CommandBarTestSuite) TestSubmit_CancelledDuringDelay() {
	ctx, cancel := context.WithCancel(context.Background())
	suite.bar.SetPrompt("hello")

	done := suite.submitAsync(ctx)
	<-suite.submitter.started
	suite.submitter.release <- nil
	cancel()

	result := suite.awaitResult(done)
	assert.Equal(suite.T(), OutcomeCancelled, result.Outcome)
	assert.ErrorIs(suite.T(), result.Err, context.Canceled)
	assert.Equal(suite.T(), "hello", suite.bar.State().Prompt)
	assert.False(suite.T(), suite.bar.State().IsLoading)
}

// TestSubmit_UnmountedDuringDelay tests that a late continuation leaves an unmounted bar alone
func (suite *CommandBarTestSuite) TestSubmit_UnmountedDuringDelay() {
	suite.bar.SetPrompt("hello")

	done := suite.submitAsync(context.Background())
	<-suite.submitter.started
	suite.bar.Unmount()
	suite.submitter.release <- nil
	suite.delay <- time.Now()

	result := suite.awaitResult(done)
	assert.Equal(suite.T(), OutcomeSubmitted, result.Outcome)
	assert.False(suite.T(), suite.bar.Mounted())
	assert.Equal(suite.T(), "hello", suite.bar.State().Prompt)
}

func TestCommandBarTestSuite(t *testing.T) {
	suite.Run(t, new(CommandBarTestSuite))
}

// TestCommandBar_RealDelay tests the scenario with the real timer
func TestCommandBar_RealDelay(t *testing.T) {
	bar := NewCommandBar(SimulatedSubmitter{}, 20*time.Millisecond)
	bar.SetPrompt("Explain compliance rules")

	start := time.Now()
	result := bar.Submit(context.Background())

	assert.True(t, result.OK())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, "", bar.State().Prompt)
	assert.False(t, bar.State().IsLoading)
}
