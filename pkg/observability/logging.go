package observability

import (
	"context"
	"log/slog"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at Info, with no-route events at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFormEnter: func(ctx context.Context, e *domain.FormEvent) {
			logger.InfoContext(ctx, "form_enter", "session_id", e.SessionID, "form_id", e.FormID)
		},
		OnFormLeave: func(ctx context.Context, e *domain.FormEvent) {
			logger.InfoContext(ctx, "form_leave", "session_id", e.SessionID, "form_id", e.FormID)
		},
		OnBlocked: func(ctx context.Context, e *domain.BlockedEvent) {
			logger.InfoContext(ctx, "advance_blocked",
				"session_id", e.SessionID,
				"form_id", e.FormID,
				"errors", len(e.Errors),
			)
		},
		OnNoRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.WarnContext(ctx, "no_route",
				"session_id", e.SessionID,
				"form_id", e.FormID,
				"question_id", e.QuestionID,
				"value", e.Value,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.InfoContext(ctx, "complete",
				"session_id", e.SessionID,
				"form_id", e.FormID,
				"answers", len(e.Answers),
			)
		},
	}
}
