package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/ports"
	"github.com/openrelief/surveyflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intake() *domain.Definition {
	return &domain.Definition{
		ID: "intake",
		Forms: []domain.Form{
			{
				ID: "start",
				Questions: []domain.Question{{
					ID:       "need",
					Kind:     domain.KindSingle,
					Required: true,
					Options: []domain.Option{
						{ID: "food", Tags: []string{"food", "urgent"}},
						{ID: "shelter", Tags: []string{"housing", "urgent"}},
					},
				}},
				Next: &domain.Next{QuestionID: "need", Cases: map[string]string{"food": "pantry", "shelter": "done"}},
			},
			{
				ID: "pantry",
				Questions: []domain.Question{{
					ID:      "diet",
					Kind:    domain.KindMulti,
					Options: []domain.Option{{ID: "vegan", Tags: []string{"vegan", "food"}}, {ID: "halal"}},
				}},
				Next: domain.To("done"),
			},
			{ID: "done"},
		},
	}
}

func TestManager_CompletionRecordsSubmission(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mgr := session.NewManager(intake(),
		session.WithSubmissionStore(store),
		session.WithClock(func() time.Time { return fixed }),
	)

	state, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, state.History)

	step, _, err := mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, runtime.OutcomeBlocked, step.Outcome)

	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "need", Value: domain.One("food")})
	require.NoError(t, err)
	_, state, err = mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "pantry", state.CurrentFormID())

	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "diet", Value: domain.Many("vegan")})
	require.NoError(t, err)

	_, err = mgr.Submission(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	step, state, err = mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, step.Completed)
	assert.Equal(t, domain.StatusCompleted, state.Status)

	sub, err := mgr.Submission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "intake", sub.DefinitionID)
	assert.Equal(t, "done", sub.FormID)
	assert.Equal(t, []string{"start", "pantry", "done"}, sub.History)
	assert.Equal(t, []string{"food", "urgent", "vegan"}, sub.Tags)
	assert.Equal(t, fixed, sub.CompletedAt)
	assert.Len(t, sub.Answers, 2)
}

func TestManager_CorrectionOverwritesSubmission(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mgr := session.NewManager(intake(), session.WithSubmissionStore(store))

	_, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)
	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "need", Value: domain.One("shelter")})
	require.NoError(t, err)
	step, _, err := mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	require.True(t, step.Completed)

	sub, err := mgr.Submission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "done"}, sub.History)
	assert.Equal(t, []string{"housing", "urgent"}, sub.Tags)

	moved, state, err := mgr.Retreat(ctx, "s1")
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, domain.StatusActive, state.Status)

	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "need", Value: domain.One("food")})
	require.NoError(t, err)
	_, state, err = mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "pantry", state.CurrentFormID())
	step, state, err = mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	require.True(t, step.Completed)
	assert.Equal(t, []string{"start", "pantry", "done"}, state.History)

	sub, err = mgr.Submission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "pantry", "done"}, sub.History)
	assert.Equal(t, []domain.Answer{{QuestionID: "need", Value: domain.One("food")}}, sub.Answers)
	assert.Equal(t, []string{"food", "urgent"}, sub.Tags)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestManager_NilLoggerKeepsDefault(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(intake(), session.WithLogger(nil))

	state, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, state.History)
}

func TestManager_RetreatAndTags(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(intake())

	_, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)

	moved, _, err := mgr.Retreat(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "need", Value: domain.One("shelter")})
	require.NoError(t, err)
	tags, err := mgr.Tags(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"housing", "urgent"}, tags)

	_, state, err := mgr.Advance(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status)

	moved, state, err = mgr.Retreat(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, domain.StatusActive, state.Status)
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(intake(), session.WithIDGenerator(func() string { return "generated" }))

	state, err := mgr.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "generated", state.SessionID)

	_, err = mgr.Create(ctx, "generated")
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	assert.Equal(t, []string{"generated"}, mgr.List())

	require.NoError(t, mgr.Close(ctx, "generated"))
	_, err = mgr.Get(ctx, "generated")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, mgr.Close(ctx, "generated"), domain.ErrSessionNotFound)
}

func TestManager_AnswerErrors(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(intake())
	_, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)

	_, err = mgr.Answer(ctx, "s1", domain.Answer{QuestionID: "ghost", Value: domain.One("x")})
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)

	_, err = mgr.Answer(ctx, "missing", domain.Answer{QuestionID: "need", Value: domain.One("food")})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SerializesOperations(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(intake())
	_, err := mgr.Create(ctx, "race")
	require.NoError(t, err)

	var active, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "race", func(_ context.Context, c *runtime.Controller) error {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return c.Answer(domain.Answer{QuestionID: "need", Value: domain.One("food")})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

type countingLocker struct {
	locks, unlocks int32
}

func (l *countingLocker) Lock(_ context.Context, _ string, _ time.Duration) (ports.UnlockFunc, error) {
	atomic.AddInt32(&l.locks, 1)
	return func(context.Context) error {
		atomic.AddInt32(&l.unlocks, 1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &countingLocker{}
	mgr := session.NewManager(intake(), session.WithLocker(locker))

	_, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)
	_, err = mgr.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&locker.locks))
	assert.Equal(t, int32(2), atomic.LoadInt32(&locker.unlocks))
}

func TestManager_ForwardsHooks(t *testing.T) {
	ctx := context.Background()
	var entered []string
	mgr := session.NewManager(intake(), session.WithLifecycleHooks(domain.LifecycleHooks{
		OnFormEnter: func(_ context.Context, e *domain.FormEvent) { entered = append(entered, e.FormID) },
	}))

	_, err := mgr.Create(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, entered)
}
