package models

import "strings"

// MaxPromptLength bounds the prompt accepted from the command form
const MaxPromptLength = 4000

// CommandForm represents the prompt submitted from the command interface
type CommandForm struct {
	Prompt string `json:"prompt" validate:"max=4000"`
}

// Validate validates the command form data.
// An empty prompt is not an error: submitting it is a no-op.
func (f *CommandForm) Validate() ValidationErrors {
	return validateStruct(f)
}

// IsBlank reports whether the prompt is empty or whitespace-only
func (f *CommandForm) IsBlank() bool {
	return strings.TrimSpace(f.Prompt) == ""
}

// CommandState is the observable state of a command bar
type CommandState struct {
	Prompt    string `json:"prompt"`
	IsLoading bool   `json:"is_loading"`
	CanSubmit bool   `json:"can_submit"`
}

// InputDisabled reports whether the text field must be disabled
func (s CommandState) InputDisabled() bool {
	return s.IsLoading
}

// SubmitDisabled reports whether the submit control must be disabled
func (s CommandState) SubmitDisabled() bool {
	return !s.CanSubmit
}
