package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choice(id string, required bool, options ...string) domain.Question {
	q := domain.Question{ID: id, Prompt: id + "?", Kind: domain.KindSingle, Required: required}
	for _, o := range options {
		q.Options = append(q.Options, domain.Option{ID: o, Label: o})
	}
	return q
}

// linear is A -> B -> C with C terminal.
func linear() *domain.Definition {
	return &domain.Definition{
		ID: "linear",
		Forms: []domain.Form{
			{ID: "A", Questions: []domain.Question{choice("qa", false, "y")}, Next: domain.To("B")},
			{ID: "B", Questions: []domain.Question{choice("qb", false, "y")}, Next: domain.To("C")},
			{ID: "C", Questions: []domain.Question{choice("qc", false, "y")}},
		},
	}
}

// branching routes on A's only question, falling back to D.
func branching() *domain.Definition {
	return &domain.Definition{
		ID: "branching",
		Forms: []domain.Form{
			{
				ID:        "A",
				Questions: []domain.Question{choice("q", true, "x", "y", "z")},
				Next: &domain.Next{
					QuestionID: "q",
					Cases:      map[string]string{"x": "B", "y": "C"},
					Default:    "D",
				},
			},
			{ID: "B", Questions: []domain.Question{choice("qb", false, "y")}},
			{ID: "C", Questions: []domain.Question{choice("qc", false, "y")}},
			{ID: "D", Questions: []domain.Question{choice("qd", false, "y")}},
		},
	}
}

func start(t *testing.T, def *domain.Definition, opts ...runtime.Option) *runtime.Controller {
	t.Helper()
	c, err := runtime.Start(context.Background(), def, "s1", opts...)
	require.NoError(t, err)
	return c
}

func TestController_LinearToTerminal(t *testing.T) {
	ctx := context.Background()
	c := start(t, linear())

	assert.Equal(t, "A", c.Current().ID)
	assert.False(t, c.Terminal())

	step, err := c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.Step{Outcome: runtime.OutcomeMoved, From: "A", To: "B"}, step)

	step, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeMoved, step.Outcome)
	assert.True(t, step.Completed)

	assert.Equal(t, "C", c.Current().ID)
	assert.True(t, c.Terminal())
	assert.True(t, c.Completed())
	assert.Equal(t, []string{"A", "B", "C"}, c.History())

	step, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeTerminal, step.Outcome)
	assert.Equal(t, []string{"A", "B", "C"}, c.History())
}

func TestController_ConditionalRouting(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{name: "Mapped value", answer: "x", want: "B"},
		{name: "Other mapped value", answer: "y", want: "C"},
		{name: "Unmapped value falls back to default", answer: "z", want: "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := start(t, branching())
			require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One(tt.answer)}))

			step, err := c.Advance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, runtime.OutcomeMoved, step.Outcome)
			assert.Equal(t, tt.want, c.Current().ID)
		})
	}
}

func TestController_BlockedLeavesHistory(t *testing.T) {
	var blocked []*domain.BlockedEvent
	c := start(t, branching(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnBlocked: func(_ context.Context, e *domain.BlockedEvent) { blocked = append(blocked, e) },
	}))

	assert.Equal(t, []string{"answer required for question q"}, c.Validate())

	step, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeBlocked, step.Outcome)
	assert.Equal(t, []string{"answer required for question q"}, step.Errors)
	assert.False(t, step.Moved())
	assert.Equal(t, []string{"A"}, c.History())

	require.Len(t, blocked, 1)
	assert.Equal(t, "A", blocked[0].FormID)
	assert.Equal(t, domain.EventBlocked, blocked[0].Type)
}

func TestController_NoRoute(t *testing.T) {
	def := branching()
	def.Forms[0].Next.Default = ""

	var buf bytes.Buffer
	var routes []*domain.RouteEvent
	c := start(t, def,
		runtime.WithLogger(logging.NewWriter(&buf, slog.LevelWarn, false)),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnNoRoute: func(_ context.Context, e *domain.RouteEvent) { routes = append(routes, e) },
		}),
	)
	require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("z")}))

	step, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeNoRoute, step.Outcome)
	assert.Equal(t, []string{"A"}, c.History())

	require.Len(t, routes, 1)
	assert.Equal(t, "q", routes[0].QuestionID)
	assert.Equal(t, "z", routes[0].Value)
	assert.Contains(t, buf.String(), "no transition matched")
	assert.Contains(t, buf.String(), "form_id=A")
}

func TestController_FixedNextWithoutTarget(t *testing.T) {
	def := linear()
	def.Forms[0].Next = &domain.Next{}

	var buf bytes.Buffer
	var routes []*domain.RouteEvent
	c := start(t, def,
		runtime.WithLogger(logging.NewWriter(&buf, slog.LevelWarn, false)),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnNoRoute: func(_ context.Context, e *domain.RouteEvent) { routes = append(routes, e) },
		}),
	)

	step, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeNoRoute, step.Outcome)
	assert.Equal(t, []string{"A"}, c.History())

	require.Len(t, routes, 1)
	assert.Equal(t, "A", routes[0].FormID)
	assert.Contains(t, buf.String(), "no transition matched")
	assert.Contains(t, buf.String(), "form_id=A")
}

func TestController_UnknownTargetIsError(t *testing.T) {
	def := linear()
	def.Forms[0].Next = domain.To("ghost")

	c := start(t, def)
	_, err := c.Advance(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownForm))
	assert.Equal(t, []string{"A"}, c.History())
}

func TestController_Retreat(t *testing.T) {
	ctx := context.Background()
	c := start(t, branching())

	assert.False(t, c.Retreat(ctx), "retreat on the entry form is a no-op")
	assert.Equal(t, []string{"A"}, c.History())

	require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("x")}))
	_, err := c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, "B", c.Current().ID)

	assert.True(t, c.Retreat(ctx))
	assert.Equal(t, []string{"A"}, c.History())

	// Answers survive the retreat, so advancing again is deterministic.
	a, ok := c.State().Answers.Get("q")
	require.True(t, ok)
	assert.Equal(t, domain.One("x"), a.Value)

	_, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", c.Current().ID)
}

func TestController_HistoryCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	c := start(t, linear())

	before := c.State()
	_, err := c.Advance(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, before.History)
	assert.Equal(t, []string{"A", "B"}, c.History())

	snapshot := c.History()
	snapshot[0] = "mutated"
	assert.Equal(t, []string{"A", "B"}, c.History())
}

func TestController_CompletionFiresPerCompletion(t *testing.T) {
	ctx := context.Background()
	var completions []*domain.CompletionEvent
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	c := start(t, branching(),
		runtime.WithClock(func() time.Time { return fixed }),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnComplete: func(_ context.Context, e *domain.CompletionEvent) { completions = append(completions, e) },
		}),
	)
	require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("y")}))

	_, err := c.Advance(ctx)
	require.NoError(t, err)
	require.True(t, c.Completed())

	step, err := c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeTerminal, step.Outcome)
	require.Len(t, completions, 1, "advancing on a terminal form does not complete again")

	e := completions[0]
	assert.Equal(t, "C", e.FormID)
	assert.Equal(t, "branching", e.DefinitionID)
	assert.Equal(t, fixed, e.Timestamp)
	assert.Equal(t, []string{"A", "C"}, e.History)
	assert.Equal(t, []domain.Answer{{QuestionID: "q", Value: domain.One("y")}}, e.Answers)

	require.True(t, c.Retreat(ctx))
	assert.False(t, c.Completed(), "retreat reopens the session")

	require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("z")}))
	_, err = c.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, c.Completed())

	require.Len(t, completions, 2)
	e = completions[1]
	assert.Equal(t, "D", e.FormID)
	assert.Equal(t, []string{"A", "D"}, e.History)
	assert.Equal(t, []domain.Answer{{QuestionID: "q", Value: domain.One("z")}}, e.Answers)
}

func TestController_TerminalEntry(t *testing.T) {
	var completions int
	def := &domain.Definition{
		ID:    "one",
		Forms: []domain.Form{{ID: "only", Questions: []domain.Question{choice("q", false, "y")}}},
	}
	c := start(t, def, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnComplete: func(context.Context, *domain.CompletionEvent) { completions++ },
	}))

	assert.True(t, c.Completed())
	assert.Equal(t, 1, completions)
}

func TestController_EnterLeaveEvents(t *testing.T) {
	ctx := context.Background()
	var entered, left []string
	c := start(t, linear(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFormEnter: func(_ context.Context, e *domain.FormEvent) { entered = append(entered, e.FormID) },
		OnFormLeave: func(_ context.Context, e *domain.FormEvent) { left = append(left, e.FormID) },
	}))

	_, err := c.Advance(ctx)
	require.NoError(t, err)
	c.Retreat(ctx)

	assert.Equal(t, []string{"A", "B", "A"}, entered)
	assert.Equal(t, []string{"A", "B"}, left)
}

func TestController_Answer(t *testing.T) {
	c := start(t, branching())

	err := c.Answer(domain.Answer{QuestionID: "nope", Value: domain.One("x")})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)

	err = c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("w")})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schema.ReasonUnknownOption, verr.Reason)

	require.NoError(t, c.Answer(domain.Answer{QuestionID: "qd", Value: domain.One("y")}))
	assert.Equal(t, []string{"A"}, c.History(), "answering never moves")
	assert.Len(t, c.Answers(), 1)
}

func TestController_Tags(t *testing.T) {
	def := branching()
	def.Forms[0].Questions[0].Options[0].Tags = []string{"urgent", "food"}

	c := start(t, def)
	assert.Empty(t, c.Tags())

	require.NoError(t, c.Answer(domain.Answer{QuestionID: "q", Value: domain.One("x")}))
	assert.Equal(t, []string{"urgent", "food"}, c.Tags())
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	var completions int
	hooks := runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnComplete: func(context.Context, *domain.CompletionEvent) { completions++ },
	})

	c := start(t, linear(), hooks)
	_, err := c.Advance(ctx)
	require.NoError(t, err)

	resumed, err := runtime.Resume(linear(), c.State(), hooks)
	require.NoError(t, err)
	assert.Equal(t, "B", resumed.Current().ID)

	_, err = resumed.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completions)

	again, err := runtime.Resume(linear(), resumed.State(), hooks)
	require.NoError(t, err)
	assert.True(t, again.Completed())
	step, err := again.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeTerminal, step.Outcome)
	assert.Equal(t, 1, completions, "resuming a completed session does not notify again")

	require.True(t, again.Retreat(ctx))
	_, err = again.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, completions, "completing a reopened session notifies again")
}

func TestResume_RejectsForeignHistory(t *testing.T) {
	state := domain.NewState("s1", "B")
	_, err := runtime.Resume(linear(), state)
	assert.Error(t, err)

	state = domain.NewState("s1", "A")
	state.History = append(state.History, "ghost")
	_, err = runtime.Resume(linear(), state)
	assert.ErrorIs(t, err, domain.ErrUnknownForm)
}
