package catalog

import (
	"sort"

	"github.com/openrelief/surveyflow/pkg/domain"
)

type bucket struct {
	category  domain.Category
	order     int
	resources []domain.Resource
	seen      map[string]bool
}

// Group buckets resources by the category of each tag they carry.
//
// A resource appears once in every category it touches, even when several of its tags
// share that category. Tags without a category are ignored, so a resource with no
// categorized tag is dropped. Categories are ordered by ascending priority; categories
// without a priority come last, and ties keep first-encounter order.
func Group(resources []domain.Resource) []domain.Group {
	buckets := make(map[string]*bucket)
	var order []*bucket

	for _, r := range resources {
		for _, tag := range r.Tags {
			if tag.Category == nil {
				continue
			}
			b, ok := buckets[tag.Category.Slug]
			if !ok {
				b = &bucket{
					category: *tag.Category,
					order:    len(order),
					seen:     make(map[string]bool),
				}
				buckets[tag.Category.Slug] = b
				order = append(order, b)
			}
			if b.seen[r.Slug] {
				continue
			}
			b.seen[r.Slug] = true
			b.resources = append(b.resources, r)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return lessPriority(order[i].category.Priority, order[j].category.Priority)
	})

	groups := make([]domain.Group, 0, len(order))
	for _, b := range order {
		groups = append(groups, domain.Group{
			Category:  b.category,
			Resources: b.resources,
		})
	}
	return groups
}

// lessPriority treats a missing priority as +infinity.
func lessPriority(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
