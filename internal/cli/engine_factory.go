package cli

import (
	"fmt"
	"log/slog"

	"github.com/openrelief/surveyflow"
	"github.com/openrelief/surveyflow/pkg/adapters/file"
	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/domain"
)

// createEngine initializes a survey engine with standard CLI conventions.
func createEngine(opts RunOptions, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*surveyflow.Engine, error) {
	engineOpts := []surveyflow.Option{
		surveyflow.WithLogger(logger),
	}

	if opts.Debug {
		hooks = append(hooks, createDebugHooks(logger))
	}
	if len(hooks) > 0 {
		engineOpts = append(engineOpts, surveyflow.WithLifecycleHooks(domain.ChainHooks(hooks...)))
	}

	if opts.CatalogPath != "" {
		resources, err := file.LoadCatalog(opts.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
		engineOpts = append(engineOpts, surveyflow.WithResourceFinder(memory.NewCatalog(resources...)))
	}

	engine, err := surveyflow.New(opts.Path, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
