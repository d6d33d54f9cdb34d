package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFormEnter EventType = "form_enter"
	EventFormLeave EventType = "form_leave"
	EventBlocked   EventType = "advance_blocked"
	EventNoRoute   EventType = "no_route"
	EventComplete  EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// FormEvent represents entry into or exit from a form.
type FormEvent struct {
	EventBase
	FormID string `json:"form_id"`
}

// BlockedEvent is emitted when Advance is refused because required answers are missing.
type BlockedEvent struct {
	EventBase
	FormID string   `json:"form_id"`
	Errors []string `json:"errors"`
}

// RouteEvent is emitted when a conditional transition matches no case and has no fallback.
type RouteEvent struct {
	EventBase
	FormID     string `json:"form_id"`
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// CompletionEvent is emitted each time the session reaches a terminal form. A session
// reopened by Retreat reports again when it completes with corrected answers.
type CompletionEvent struct {
	EventBase
	DefinitionID string   `json:"definition_id,omitempty"`
	FormID       string   `json:"form_id"`
	History      []string `json:"history"`
	Answers      []Answer `json:"answers"`
}

// LifecycleHooks defines callbacks for navigation observability and completion handling.
type LifecycleHooks struct {
	OnFormEnter func(context.Context, *FormEvent)
	OnFormLeave func(context.Context, *FormEvent)
	OnBlocked   func(context.Context, *BlockedEvent)
	OnNoRoute   func(context.Context, *RouteEvent)
	OnComplete  func(context.Context, *CompletionEvent)
}

// ChainHooks fans each event out to every non-nil callback, in argument order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnFormEnter: func(ctx context.Context, e *FormEvent) {
			for _, h := range hooks {
				if h.OnFormEnter != nil {
					h.OnFormEnter(ctx, e)
				}
			}
		},
		OnFormLeave: func(ctx context.Context, e *FormEvent) {
			for _, h := range hooks {
				if h.OnFormLeave != nil {
					h.OnFormLeave(ctx, e)
				}
			}
		},
		OnBlocked: func(ctx context.Context, e *BlockedEvent) {
			for _, h := range hooks {
				if h.OnBlocked != nil {
					h.OnBlocked(ctx, e)
				}
			}
		},
		OnNoRoute: func(ctx context.Context, e *RouteEvent) {
			for _, h := range hooks {
				if h.OnNoRoute != nil {
					h.OnNoRoute(ctx, e)
				}
			}
		},
		OnComplete: func(ctx context.Context, e *CompletionEvent) {
			for _, h := range hooks {
				if h.OnComplete != nil {
					h.OnComplete(ctx, e)
				}
			}
		},
	}
}
