package ports

import (
	"context"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// DefinitionLoader produces the survey graph the engine walks.
// Implementations return the definition unvalidated; callers run the validator.
type DefinitionLoader interface {
	Load(ctx context.Context) (*domain.Definition, error)
}

// ResourceFinder is the resource lookup collaborator.
// The engine only consumes its result; matching semantics belong to the implementation.
type ResourceFinder interface {
	// FindByTags returns every resource carrying at least one of the tags.
	// An empty tag list yields no resources.
	FindByTags(ctx context.Context, tags []string) ([]domain.Resource, error)
}
