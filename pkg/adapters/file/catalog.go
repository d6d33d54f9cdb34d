package file

import (
	"fmt"
	"os"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// catalogDocument is the on-disk shape of a resource catalog. Tags name their category
// and resources name their tags by slug; LoadCatalog links them.
type catalogDocument struct {
	Categories []domain.Category `mapstructure:"categories"`
	Tags       []struct {
		Slug     string `mapstructure:"slug"`
		Name     string `mapstructure:"name"`
		Category string `mapstructure:"category"`
	} `mapstructure:"tags"`
	Resources []struct {
		Slug     string   `mapstructure:"slug"`
		Title    string   `mapstructure:"title"`
		Tags     []string `mapstructure:"tags"`
		Priority *int     `mapstructure:"priority"`
	} `mapstructure:"resources"`
}

// LoadCatalog reads a resource catalog file.
func LoadCatalog(path string) ([]domain.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	resources, err := DecodeCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resources, nil
}

// DecodeCatalog decodes a catalog document and resolves tag and category references.
// A tag without a category is kept uncategorized; unknown references are errors.
func DecodeCatalog(data []byte) ([]domain.Resource, error) {
	var doc catalogDocument
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	categories := make(map[string]*domain.Category, len(doc.Categories))
	for i := range doc.Categories {
		c := &doc.Categories[i]
		if _, dup := categories[c.Slug]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Slug)
		}
		categories[c.Slug] = c
	}

	tags := make(map[string]domain.Tag, len(doc.Tags))
	for _, t := range doc.Tags {
		if _, dup := tags[t.Slug]; dup {
			return nil, fmt.Errorf("duplicate tag %q", t.Slug)
		}
		tag := domain.Tag{Slug: t.Slug, Name: t.Name}
		if t.Category != "" {
			c, ok := categories[t.Category]
			if !ok {
				return nil, fmt.Errorf("tag %q: unknown category %q", t.Slug, t.Category)
			}
			tag.Category = c
		}
		tags[t.Slug] = tag
	}

	resources := make([]domain.Resource, 0, len(doc.Resources))
	for _, r := range doc.Resources {
		res := domain.Resource{Slug: r.Slug, Title: r.Title, Priority: r.Priority}
		for _, slug := range r.Tags {
			tag, ok := tags[slug]
			if !ok {
				return nil, fmt.Errorf("resource %q: unknown tag %q", r.Slug, slug)
			}
			res.Tags = append(res.Tags, tag)
		}
		resources = append(resources, res)
	}
	return resources, nil
}
