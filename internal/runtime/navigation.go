package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/schema"
)

// Outcome classifies the result of an Advance call.
type Outcome string

const (
	OutcomeMoved    Outcome = "moved"    // A new form was pushed onto the history
	OutcomeBlocked  Outcome = "blocked"  // Required answers are missing
	OutcomeNoRoute  Outcome = "no_route" // No conditional case matched and there is no fallback
	OutcomeTerminal Outcome = "terminal" // The current form has no next rule
)

// Step describes what Advance did.
type Step struct {
	Outcome Outcome  `json:"outcome"`
	From    string   `json:"from"`
	To      string   `json:"to,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	// Completed is true when this step reached a terminal form.
	Completed bool `json:"completed,omitempty"`
}

// Moved reports whether the history changed.
func (s Step) Moved() bool {
	return s.Outcome == OutcomeMoved
}

// Advance validates the current form, resolves the next form and pushes it onto the
// history. Missing required answers, unmatched conditions and terminal forms are
// reported through Step and leave the state untouched. An error is only returned when
// the resolved target does not exist in the definition.
func (c *Controller) Advance(ctx context.Context) (Step, error) {
	current := c.Current()
	if current == nil {
		return Step{From: c.state.CurrentFormID()}, fmt.Errorf("current form %q: %w", c.state.CurrentFormID(), domain.ErrUnknownForm)
	}

	step := Step{From: current.ID}

	if current.Terminal() {
		step.Outcome = OutcomeTerminal
		return step, nil
	}

	if problems := schema.ValidateForm(current, c.state.Answers); len(problems) > 0 {
		step.Outcome = OutcomeBlocked
		step.Errors = problems
		c.emitBlocked(ctx, current.ID, problems)
		return step, nil
	}

	targetID, ok := c.resolveNext(ctx, current)
	if !ok {
		step.Outcome = OutcomeNoRoute
		return step, nil
	}

	target, found := c.def.Form(targetID)
	if !found {
		c.logger.Error("resolved form missing from definition", "form_id", current.ID, "target", targetID)
		return step, fmt.Errorf("form %q: next target %q: %w", current.ID, targetID, domain.ErrUnknownForm)
	}

	c.emitFormLeave(ctx, current.ID)

	// Copy-on-write so snapshots handed out earlier never observe the push.
	history := make([]string, len(c.state.History), len(c.state.History)+1)
	copy(history, c.state.History)
	c.state.History = append(history, target.ID)

	c.logger.Debug("advanced", "from", current.ID, "to", target.ID)
	c.emitFormEnter(ctx, target.ID)

	step.Outcome = OutcomeMoved
	step.To = target.ID
	if target.Terminal() {
		c.complete(ctx, target)
		step.Completed = true
	}
	return step, nil
}

// Retreat pops the current form off the history. With a single entry it is a no-op and
// returns false. Answers given on the discarded form are kept. Retreating from a terminal
// form reopens the session, and the next completion fires OnComplete again.
func (c *Controller) Retreat(ctx context.Context) bool {
	if len(c.state.History) <= 1 {
		return false
	}

	left := c.state.CurrentFormID()
	c.emitFormLeave(ctx, left)

	c.state.History = slices.Clone(c.state.History[:len(c.state.History)-1])
	if c.state.Status == domain.StatusCompleted {
		// Reaching a terminal form again reports the corrected answers.
		c.state.Status = domain.StatusActive
		c.notified = false
	}

	c.logger.Debug("retreated", "from", left, "to", c.state.CurrentFormID())
	c.emitFormEnter(ctx, c.state.CurrentFormID())
	return true
}

// resolveNext picks the target form id for a form whose validation passed.
func (c *Controller) resolveNext(ctx context.Context, form *domain.Form) (string, bool) {
	next := form.Next
	if !next.IsConditional() {
		if next.Default == "" {
			c.logger.Warn("no transition matched", "form_id", form.ID)
			c.emitNoRoute(ctx, form.ID, "", "")
			return "", false
		}
		return next.Default, true
	}

	var value string
	if answer, ok := c.state.Answers.Get(next.QuestionID); ok {
		scalar, isScalar := answer.Value.Scalar()
		if isScalar {
			if target, matched := next.Cases[scalar]; matched {
				return target, true
			}
		}
		value = answer.Value.String()
	}

	if next.Default != "" {
		return next.Default, true
	}

	c.logger.Warn("no transition matched",
		"form_id", form.ID,
		"question_id", next.QuestionID,
		"value", value,
	)
	c.emitNoRoute(ctx, form.ID, next.QuestionID, value)
	return "", false
}

func (c *Controller) complete(ctx context.Context, form *domain.Form) {
	c.state.Status = domain.StatusCompleted
	if c.notified {
		return
	}
	c.notified = true
	c.logger.Info("survey completed", "form_id", form.ID, "answers", c.state.Answers.Len())
	c.emitComplete(ctx, form.ID)
}
