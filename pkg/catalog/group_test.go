package catalog_test

import (
	"testing"

	"github.com/openrelief/surveyflow/pkg/catalog"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priority(p int) *int { return &p }

func slugs(g domain.Group) []string {
	out := make([]string, 0, len(g.Resources))
	for _, r := range g.Resources {
		out = append(out, r.Slug)
	}
	return out
}

func TestGroup_Scenario(t *testing.T) {
	catA := &domain.Category{Slug: "cat-a", Name: "Cat A", Priority: priority(1)}
	catB := &domain.Category{Slug: "cat-b", Name: "Cat B", Priority: priority(2)}
	t1 := domain.Tag{Slug: "t1", Category: catA}
	t2 := domain.Tag{Slug: "t2", Category: catB}

	groups := catalog.Group([]domain.Resource{
		{Slug: "R1", Tags: []domain.Tag{t1}},
		{Slug: "R2", Tags: []domain.Tag{t1, t2}},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "cat-a", groups[0].Category.Slug)
	assert.Equal(t, []string{"R1", "R2"}, slugs(groups[0]))
	assert.Equal(t, "cat-b", groups[1].Category.Slug)
	assert.Equal(t, []string{"R2"}, slugs(groups[1]))
}

func TestGroup_DedupWithinCategory(t *testing.T) {
	cat := &domain.Category{Slug: "food", Priority: priority(1)}
	groups := catalog.Group([]domain.Resource{
		{Slug: "pantry", Tags: []domain.Tag{
			{Slug: "meals", Category: cat},
			{Slug: "groceries", Category: cat},
		}},
	})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"pantry"}, slugs(groups[0]))
}

func TestGroup_Ordering(t *testing.T) {
	late := &domain.Category{Slug: "late"}
	early := &domain.Category{Slug: "early", Priority: priority(0)}
	mid := &domain.Category{Slug: "mid", Priority: priority(5)}
	alsoLate := &domain.Category{Slug: "also-late"}
	tieA := &domain.Category{Slug: "tie-a", Priority: priority(5)}

	groups := catalog.Group([]domain.Resource{
		{Slug: "r1", Tags: []domain.Tag{{Slug: "a", Category: late}}},
		{Slug: "r2", Tags: []domain.Tag{{Slug: "b", Category: mid}}},
		{Slug: "r3", Tags: []domain.Tag{{Slug: "c", Category: alsoLate}}},
		{Slug: "r4", Tags: []domain.Tag{{Slug: "d", Category: early}}},
		{Slug: "r5", Tags: []domain.Tag{{Slug: "e", Category: tieA}}},
	})

	var order []string
	for _, g := range groups {
		order = append(order, g.Category.Slug)
	}
	assert.Equal(t, []string{"early", "mid", "tie-a", "late", "also-late"}, order)
}

func TestGroup_DropsUncategorized(t *testing.T) {
	groups := catalog.Group([]domain.Resource{
		{Slug: "orphan", Tags: []domain.Tag{{Slug: "loose"}}},
		{Slug: "bare"},
	})
	assert.Empty(t, groups)
}
