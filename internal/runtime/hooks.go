package runtime

import (
	"context"

	"github.com/openrelief/surveyflow/pkg/domain"
)

func (c *Controller) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: c.now(),
		Type:      t,
		SessionID: c.state.SessionID,
	}
}

func (c *Controller) emitFormEnter(ctx context.Context, formID string) {
	if c.hooks.OnFormEnter == nil {
		return
	}
	c.hooks.OnFormEnter(ctx, &domain.FormEvent{
		EventBase: c.base(domain.EventFormEnter),
		FormID:    formID,
	})
}

func (c *Controller) emitFormLeave(ctx context.Context, formID string) {
	if c.hooks.OnFormLeave == nil {
		return
	}
	c.hooks.OnFormLeave(ctx, &domain.FormEvent{
		EventBase: c.base(domain.EventFormLeave),
		FormID:    formID,
	})
}

func (c *Controller) emitBlocked(ctx context.Context, formID string, problems []string) {
	if c.hooks.OnBlocked == nil {
		return
	}
	c.hooks.OnBlocked(ctx, &domain.BlockedEvent{
		EventBase: c.base(domain.EventBlocked),
		FormID:    formID,
		Errors:    problems,
	})
}

func (c *Controller) emitNoRoute(ctx context.Context, formID, questionID, value string) {
	if c.hooks.OnNoRoute == nil {
		return
	}
	c.hooks.OnNoRoute(ctx, &domain.RouteEvent{
		EventBase:  c.base(domain.EventNoRoute),
		FormID:     formID,
		QuestionID: questionID,
		Value:      value,
	})
}

func (c *Controller) emitComplete(ctx context.Context, formID string) {
	if c.hooks.OnComplete == nil {
		return
	}
	c.hooks.OnComplete(ctx, &domain.CompletionEvent{
		EventBase:    c.base(domain.EventComplete),
		DefinitionID: c.def.ID,
		FormID:       formID,
		History:      c.History(),
		Answers:      c.state.Answers.All(),
	})
}
