package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/pkg/catalog"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/ports"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates live sessions, ensuring operations on one session never overlap.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	def *domain.Definition

	mu    sync.Mutex            // Guards locks
	locks map[string]*lockEntry // Active per-session locks

	sessMu   sync.RWMutex
	sessions map[string]*runtime.Controller

	store   ports.SubmissionStore   // Optional completion sink
	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithSubmissionStore sets where completed sessions are recorded.
func WithSubmissionStore(store ports.SubmissionStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLifecycleHooks registers hooks on every controller the Manager starts.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithLogger configures a logger for the Manager and its controllers.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides how IDs are assigned to sessions created without one.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a session Manager for a validated definition.
func NewManager(def *domain.Definition, opts ...Option) *Manager {
	m := &Manager{
		def:      def,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*runtime.Controller),
		lockTTL:  defaultLockTTL,
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Definition returns the survey the Manager runs.
func (m *Manager) Definition() *domain.Definition {
	return m.def
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// lock serializes fn against every other operation on the session.
func (m *Manager) lock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// WithLock runs fn with exclusive access to the session's controller.
// Returns domain.ErrSessionNotFound if the session is not live.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *runtime.Controller) error) error {
	return m.lock(ctx, sessionID, func(ctx context.Context) error {
		c, err := m.controller(sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, c)
	})
}

func (m *Manager) controller(sessionID string) (*runtime.Controller, error) {
	m.sessMu.RLock()
	defer m.sessMu.RUnlock()
	c, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return c, nil
}

// Create starts a session at the entry form. An empty sessionID gets a generated one.
func (m *Manager) Create(ctx context.Context, sessionID string) (*domain.State, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}

	var state *domain.State
	err := m.lock(ctx, sessionID, func(ctx context.Context) error {
		m.sessMu.RLock()
		_, exists := m.sessions[sessionID]
		m.sessMu.RUnlock()
		if exists {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionExists)
		}

		c, err := runtime.Start(ctx, m.def, sessionID, m.controllerOptions()...)
		if err != nil {
			return err
		}

		m.sessMu.Lock()
		m.sessions[sessionID] = c
		m.sessMu.Unlock()

		m.logger.Debug("session created", "session_id", sessionID)
		state = c.State()
		return nil
	})
	return state, err
}

// Get returns a snapshot of the session state.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(_ context.Context, c *runtime.Controller) error {
		state = c.State()
		return nil
	})
	return state, err
}

// Answer records an answer and returns the updated state.
func (m *Manager) Answer(ctx context.Context, sessionID string, answer domain.Answer) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(_ context.Context, c *runtime.Controller) error {
		if err := c.Answer(answer); err != nil {
			return err
		}
		state = c.State()
		return nil
	})
	return state, err
}

// Advance moves the session forward and returns what happened with the resulting state.
func (m *Manager) Advance(ctx context.Context, sessionID string) (runtime.Step, *domain.State, error) {
	var (
		step  runtime.Step
		state *domain.State
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, c *runtime.Controller) error {
		var err error
		step, err = c.Advance(ctx)
		state = c.State()
		return err
	})
	return step, state, err
}

// Retreat moves the session back one form. The bool is false when already at the entry form.
func (m *Manager) Retreat(ctx context.Context, sessionID string) (bool, *domain.State, error) {
	var (
		moved bool
		state *domain.State
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context, c *runtime.Controller) error {
		moved = c.Retreat(ctx)
		state = c.State()
		return nil
	})
	return moved, state, err
}

// Tags resolves the categorization tags of the session's current answers.
func (m *Manager) Tags(ctx context.Context, sessionID string) ([]string, error) {
	var tags []string
	err := m.WithLock(ctx, sessionID, func(_ context.Context, c *runtime.Controller) error {
		tags = c.Tags()
		return nil
	})
	return tags, err
}

// Close forgets a live session. Its submission, if any, stays in the store.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.lock(ctx, sessionID, func(context.Context) error {
		m.sessMu.Lock()
		defer m.sessMu.Unlock()
		if _, ok := m.sessions[sessionID]; !ok {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
		}
		delete(m.sessions, sessionID)
		return nil
	})
}

// List returns the live session IDs in sorted order.
func (m *Manager) List() []string {
	m.sessMu.RLock()
	defer m.sessMu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Submission loads the recorded submission of a completed session.
func (m *Manager) Submission(ctx context.Context, sessionID string) (*domain.Submission, error) {
	if m.store == nil {
		return nil, domain.ErrSubmissionNotFound
	}
	return m.store.Load(ctx, sessionID)
}

func (m *Manager) controllerOptions() []runtime.Option {
	return []runtime.Option{
		runtime.WithLogger(m.logger),
		runtime.WithClock(m.now),
		runtime.WithLifecycleHooks(domain.ChainHooks(
			m.hooks,
			domain.LifecycleHooks{OnComplete: m.record},
		)),
	}
}

// record writes the submission of a session that just completed.
// It runs inside the session lock, from the controller's completion hook.
func (m *Manager) record(ctx context.Context, e *domain.CompletionEvent) {
	if m.store == nil {
		return
	}
	sub := &domain.Submission{
		SessionID:    e.SessionID,
		DefinitionID: e.DefinitionID,
		FormID:       e.FormID,
		History:      e.History,
		Answers:      e.Answers,
		Tags:         catalog.UniqueTags(catalog.ResolveTags(e.Answers, m.def.Questions())),
		CompletedAt:  e.Timestamp,
	}
	if err := m.store.Save(ctx, sub); err != nil {
		m.logger.Error("failed to record submission", "session_id", e.SessionID, "err", err)
		return
	}
	m.logger.Info("submission recorded", "session_id", e.SessionID, "tags", len(sub.Tags))
}
