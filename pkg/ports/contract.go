package ports

import (
	"context"
	"testing"
	"time"

	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSubmissionStoreContract runs a suite of tests to verify that a SubmissionStore
// implementation adheres to the interface contract.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSubmission := func(id string) *domain.Submission {
		return &domain.Submission{
			SessionID:    id,
			DefinitionID: "intake",
			FormID:       "done",
			History:      []string{"start", "done"},
			Answers: []domain.Answer{
				{QuestionID: "need", Value: domain.One("food")},
				{QuestionID: "household", Value: domain.Many("kids", "elderly")},
			},
			Tags:        []string{"food", "family"},
			CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		sub := newSubmission(sessionID)
		require.NoError(t, store.Save(ctx, sub), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sub.SessionID, loaded.SessionID)
		assert.Equal(t, sub.DefinitionID, loaded.DefinitionID)
		assert.Equal(t, sub.FormID, loaded.FormID)
		assert.Equal(t, sub.History, loaded.History)
		assert.Equal(t, sub.Answers, loaded.Answers)
		assert.Equal(t, sub.Tags, loaded.Tags)
		assert.True(t, sub.CompletedAt.Equal(loaded.CompletedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		sub := newSubmission(sessionID)
		sub.Tags = []string{"housing"}
		require.NoError(t, store.Save(ctx, sub))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"housing"}, loaded.Tags)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newSubmission(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound, "Load after Delete should return ErrSubmissionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, newSubmission(id1)))
		require.NoError(t, store.Save(ctx, newSubmission(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunResourceFinderContract verifies a ResourceFinder seeded with the fixture returned
// by ContractResources.
func RunResourceFinderContract(t *testing.T, finder ResourceFinder) {
	ctx := context.Background()

	slugs := func(resources []domain.Resource) []string {
		out := make([]string, 0, len(resources))
		for _, r := range resources {
			out = append(out, r.Slug)
		}
		return out
	}

	t.Run("Match Any Tag", func(t *testing.T) {
		found, err := finder.FindByTags(ctx, []string{"t2"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"R2"}, slugs(found))

		found, err = finder.FindByTags(ctx, []string{"t1", "t2"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"R1", "R2"}, slugs(found))
	})

	t.Run("Duplicate Tags", func(t *testing.T) {
		found, err := finder.FindByTags(ctx, []string{"t1", "t1"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"R1", "R2"}, slugs(found), "each resource is returned once")
	})

	t.Run("Categories Attached", func(t *testing.T) {
		found, err := finder.FindByTags(ctx, []string{"t1"})
		require.NoError(t, err)
		for _, r := range found {
			for _, tag := range r.Tags {
				require.NotNil(t, tag.Category, "tag %s of %s", tag.Slug, r.Slug)
			}
		}
	})

	t.Run("No Tags", func(t *testing.T) {
		found, err := finder.FindByTags(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = finder.FindByTags(ctx, []string{"unknown"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

// ContractResources is the fixture expected by RunResourceFinderContract:
// R1 tagged t1, R2 tagged t1 and t2, R3 tagged t3.
func ContractResources() []domain.Resource {
	one, two := 1, 2
	catA := &domain.Category{Slug: "cat-a", Name: "Category A", Priority: &one}
	catB := &domain.Category{Slug: "cat-b", Name: "Category B", Priority: &two}
	t1 := domain.Tag{Slug: "t1", Name: "Tag 1", Category: catA}
	t2 := domain.Tag{Slug: "t2", Name: "Tag 2", Category: catB}
	t3 := domain.Tag{Slug: "t3", Name: "Tag 3", Category: catB}

	return []domain.Resource{
		{Slug: "R1", Title: "Resource 1", Tags: []domain.Tag{t1}},
		{Slug: "R2", Title: "Resource 2", Tags: []domain.Tag{t1, t2}},
		{Slug: "R3", Title: "Resource 3", Tags: []domain.Tag{t3}},
	}
}
