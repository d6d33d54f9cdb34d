package domain

import "time"

// Submission is the record written when a session reaches a terminal form.
type Submission struct {
	SessionID    string    `json:"session_id"`
	DefinitionID string    `json:"definition_id,omitempty"`
	FormID       string    `json:"form_id"`
	History      []string  `json:"history"`
	Answers      []Answer  `json:"answers"`
	Tags         []string  `json:"tags,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`

	// Sealed holds an encrypted copy of the fields above when the store is wrapped by
	// an encrypting middleware; the plain fields are then cleared.
	Sealed string `json:"sealed,omitempty"`
}
