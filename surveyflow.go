package surveyflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/internal/validator"
	"github.com/openrelief/surveyflow/pkg/adapters/file"
	"github.com/openrelief/surveyflow/pkg/catalog"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/ports"
	"github.com/openrelief/surveyflow/pkg/session"
)

// Controller drives one survey session. See Engine.Start.
type Controller = runtime.Controller

// Step describes the result of Controller.Advance.
type Step = runtime.Step

// Outcome classifies a Step.
type Outcome = runtime.Outcome

// Advance outcomes.
const (
	OutcomeMoved    = runtime.OutcomeMoved
	OutcomeBlocked  = runtime.OutcomeBlocked
	OutcomeNoRoute  = runtime.OutcomeNoRoute
	OutcomeTerminal = runtime.OutcomeTerminal
)

// Engine is the high-level entry point for the library.
// It owns a validated definition and starts navigation controllers over it.
type Engine struct {
	def    *domain.Definition
	loader ports.DefinitionLoader
	finder ports.ResourceFinder
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	Name   string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom DefinitionLoader, bypassing the file loader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithResourceFinder sets the collaborator used by Resources.
func WithResourceFinder(f ports.ResourceFinder) Option {
	return func(e *Engine) {
		e.finder = f
	}
}

// WithLifecycleHooks registers observability and completion hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New loads and validates a survey definition.
// By default it reads the YAML or JSON file at path. If WithLoader is provided, path
// may be empty and is only used as a descriptive name.
// A definition failing validation is fatal: the error wraps domain.ErrInvalidDefinition.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		eng.loader = file.NewLoader(path)
	}
	if path != "" {
		eng.Name = filepath.Base(path)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	def, err := eng.loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	if err := validator.Check(def); err != nil {
		return nil, err
	}
	eng.def = def

	if eng.Name == "" {
		eng.Name = def.ID
	}
	eng.logger = eng.logger.With("survey", eng.Name)

	if unreachable := validator.Unreachable(def); len(unreachable) > 0 {
		eng.logger.Warn("definition has unreachable forms", "forms", unreachable)
	}
	return eng, nil
}

// Definition returns the validated survey definition. It must not be modified.
func (e *Engine) Definition() *domain.Definition {
	return e.def
}

// Loader returns the loader the definition came from.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Start opens a session at the entry form. An empty sessionID gets a generated one.
func (e *Engine) Start(ctx context.Context, sessionID string) (*Controller, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return runtime.Start(ctx, e.def, sessionID, e.controllerOptions()...)
}

// Resume rebuilds a controller from a state snapshot taken earlier in this process.
func (e *Engine) Resume(state *domain.State) (*Controller, error) {
	return runtime.Resume(e.def, state, e.controllerOptions()...)
}

// Sessions creates a session Manager sharing the engine's definition, hooks and logger.
// Options given here are applied after the engine defaults.
func (e *Engine) Sessions(opts ...session.Option) *session.Manager {
	base := []session.Option{
		session.WithLifecycleHooks(e.hooks),
		session.WithLogger(e.logger),
	}
	return session.NewManager(e.def, append(base, opts...)...)
}

// Tags resolves the categorization tags for a set of answers.
func (e *Engine) Tags(answers []domain.Answer) []string {
	return catalog.ResolveTags(answers, e.def.Questions())
}

// Resources looks up the resources matching the answers' tags and groups them by
// category. Without a ResourceFinder the result is empty.
func (e *Engine) Resources(ctx context.Context, answers []domain.Answer) ([]domain.Group, error) {
	if e.finder == nil {
		return nil, nil
	}
	tags := catalog.UniqueTags(e.Tags(answers))
	if len(tags) == 0 {
		return nil, nil
	}

	resources, err := e.finder.FindByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources: %w", err)
	}
	return catalog.Group(resources), nil
}

func (e *Engine) controllerOptions() []runtime.Option {
	return []runtime.Option{
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	}
}
