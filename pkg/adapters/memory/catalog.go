package memory

import (
	"context"
	"sync"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// Catalog implements ports.ResourceFinder over a fixed resource list.
type Catalog struct {
	mu        sync.RWMutex
	resources []domain.Resource
}

// NewCatalog creates a catalog holding the given resources.
func NewCatalog(resources ...domain.Resource) *Catalog {
	c := &Catalog{}
	c.Add(resources...)
	return c
}

// Add appends resources to the catalog.
func (c *Catalog) Add(resources ...domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resources...)
}

// FindByTags returns the resources carrying any of the tags, in catalog order.
func (c *Catalog) FindByTags(_ context.Context, tags []string) ([]domain.Resource, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[t] = true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []domain.Resource
	for _, r := range c.resources {
		for _, tag := range r.Tags {
			if wanted[tag.Slug] {
				found = append(found, r)
				break
			}
		}
	}
	return found, nil
}
