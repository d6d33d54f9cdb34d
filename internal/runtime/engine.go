package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/pkg/catalog"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/schema"
)

// Controller is the navigation state machine of one survey session.
// It owns the session State exclusively and is not safe for concurrent use;
// hosts serialize calls (see pkg/session).
type Controller struct {
	def    *domain.Definition
	state  *domain.State
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time

	// notified guards the completion hook so it fires once per completion.
	notified bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLifecycleHooks registers observability and completion hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger sets the structured logger used for navigation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func newController(def *domain.Definition, state *domain.State, opts []Option) *Controller {
	c := &Controller{
		def:    def,
		state:  state,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session_id", state.SessionID)
	return c
}

// Start creates a controller positioned at the entry form and emits its enter event.
// The definition must already be validated. If the entry form is terminal the session
// is completed immediately.
func Start(ctx context.Context, def *domain.Definition, sessionID string, opts ...Option) (*Controller, error) {
	entry := def.Entry()
	if entry == nil {
		return nil, fmt.Errorf("cannot start session %s: %w", sessionID, domain.ErrInvalidDefinition)
	}

	state := domain.NewState(sessionID, entry.ID)
	state.DefinitionID = def.ID

	c := newController(def, state, opts)
	c.emitFormEnter(ctx, entry.ID)
	if entry.Terminal() {
		c.complete(ctx, entry)
	}
	return c, nil
}

// Resume rebuilds a controller around an existing state snapshot, for hosts that keep
// state outside the controller between requests. No events are emitted, and a state
// already positioned on a terminal form will not fire the completion hook again.
func Resume(def *domain.Definition, state *domain.State, opts ...Option) (*Controller, error) {
	if state == nil || len(state.History) == 0 {
		return nil, fmt.Errorf("cannot resume: empty history")
	}
	entry := def.Entry()
	if entry == nil {
		return nil, fmt.Errorf("cannot resume session %s: %w", state.SessionID, domain.ErrInvalidDefinition)
	}
	if state.History[0] != entry.ID {
		return nil, fmt.Errorf("cannot resume session %s: history starts at %q, entry form is %q", state.SessionID, state.History[0], entry.ID)
	}
	for _, id := range state.History {
		if _, ok := def.Form(id); !ok {
			return nil, fmt.Errorf("cannot resume session %s: form %q: %w", state.SessionID, id, domain.ErrUnknownForm)
		}
	}

	snapshot := state.Clone()
	if snapshot.Status == "" {
		snapshot.Status = domain.StatusActive
	}
	c := newController(def, snapshot, opts)
	c.notified = snapshot.Status == domain.StatusCompleted
	return c, nil
}

// SessionID returns the id of the session this controller drives.
func (c *Controller) SessionID() string {
	return c.state.SessionID
}

// Definition returns the survey graph the controller walks.
func (c *Controller) Definition() *domain.Definition {
	return c.def
}

// Current returns the active form.
func (c *Controller) Current() *domain.Form {
	f, _ := c.def.Form(c.state.CurrentFormID())
	return f
}

// History returns a copy of the visited form ids, oldest first.
func (c *Controller) History() []string {
	return slices.Clone(c.state.History)
}

// Answers returns the collected answers in insertion order.
func (c *Controller) Answers() []domain.Answer {
	return c.state.Answers.All()
}

// State returns a deep copy of the session state.
func (c *Controller) State() *domain.State {
	return c.state.Clone()
}

// Terminal reports whether the current form ends the survey.
func (c *Controller) Terminal() bool {
	f := c.Current()
	return f != nil && f.Terminal()
}

// Completed reports whether the session has reached a terminal form.
func (c *Controller) Completed() bool {
	return c.state.Status == domain.StatusCompleted
}

// Answer records an answer after checking it against its question.
// It never changes the history.
func (c *Controller) Answer(a domain.Answer) error {
	q, ok := c.def.Question(a.QuestionID)
	if !ok {
		return fmt.Errorf("answer for %q: %w", a.QuestionID, domain.ErrUnknownQuestion)
	}
	if err := schema.CheckAnswer(q, a); err != nil {
		return err
	}
	c.state.Answers.Upsert(a)
	return nil
}

// Validate returns the problems preventing the current form from being left forward.
func (c *Controller) Validate() []string {
	return schema.ValidateForm(c.Current(), c.state.Answers)
}

// Tags resolves the categorization tags for the answers collected so far.
func (c *Controller) Tags() []string {
	return catalog.ResolveTags(c.state.Answers.All(), c.def.Questions())
}
