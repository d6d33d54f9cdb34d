package domain

import "slices"

// Status describes where a session is in its lifecycle.
type Status string

const (
	StatusActive    Status = "active"    // Collecting answers
	StatusCompleted Status = "completed" // A terminal form is current
)

// State is the navigation snapshot of one session.
type State struct {
	SessionID    string `json:"session_id"`
	DefinitionID string `json:"definition_id,omitempty"`

	// History is the stack of visited form ids, oldest first. The last entry is the
	// current form and the first entry is always the entry form.
	History []string `json:"history"`

	Answers *AnswerStore `json:"answers"`
	Status  Status       `json:"status"`
}

// NewState creates a clean state positioned at the entry form.
func NewState(sessionID, entryFormID string) *State {
	return &State{
		SessionID: sessionID,
		History:   []string{entryFormID},
		Answers:   &AnswerStore{},
		Status:    StatusActive,
	}
}

// CurrentFormID returns the top of the history stack.
func (s *State) CurrentFormID() string {
	if s == nil || len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1]
}

// Clone returns a deep copy safe to hand to other goroutines or stores.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.History = slices.Clone(s.History)
	next.Answers = s.Answers.Clone()
	return &next
}
