package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

func TestCreateTag_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tags.CreateTag(context.Background(), CreateTagInput{Name: "Go"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestCreateTag_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	_, err := env.tags.CreateTag(ctx, CreateTagInput{Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// A name with no alphanumeric content cannot produce a slug.
	_, err = env.tags.CreateTag(ctx, CreateTagInput{Name: "???"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateTag_DerivesSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	tag, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Café Culture"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-culture", tag.Slug)

	// Same derived slug, different name: suffix disambiguates.
	other, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Cafe Culture!"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-culture-2", other.Slug)
}

func TestUpdateTag_ClearParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	parent, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Parent"})
	require.NoError(t, err)
	child, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Child", ParentTagID: parent.ID})
	require.NoError(t, err)

	empty := ""
	updated, err := env.tags.UpdateTag(ctx, child.ID, UpdateTagInput{ParentTagID: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.ParentTagID)
}

func TestSearchTags_EmptyKeyword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tags.SearchTags(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMergeTags_TargetInSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	tag, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Solo"})
	require.NoError(t, err)

	_, err = env.tags.MergeTags(ctx, MergeTagsInput{
		SourceTagIDs: []string{tag.ID},
		TargetTagID:  tag.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMergeTags_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	source, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "JS"})
	require.NoError(t, err)
	target, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "JavaScript"})
	require.NoError(t, err)

	_, err = env.questions.CreateQuestion(ctx, CreateQuestionInput{
		Title:   "Why prototypes?",
		Content: "Asking for a friend.",
		TagIDs:  []string{source.ID},
	})
	require.NoError(t, err)

	// Duplicate source IDs collapse before the merge.
	result, err := env.tags.MergeTags(ctx, MergeTagsInput{
		SourceTagIDs: []string{source.ID, source.ID},
		TargetTagID:  target.ID,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.MergedTag)
	assert.Equal(t, 1, result.MergedTag.QuestionCount)

	_, err = env.tags.GetTag(ctx, source.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRepairTagCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := asUser("user-1")

	tag, err := env.tags.CreateTag(ctx, CreateTagInput{Name: "Counted"})
	require.NoError(t, err)
	_, err = env.questions.CreateQuestion(ctx, CreateQuestionInput{
		Title:   "One",
		Content: "c",
		TagIDs:  []string{tag.ID},
	})
	require.NoError(t, err)

	require.NoError(t, env.tags.RepairTagCounts(ctx))

	got, err := env.tags.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuestionCount)
}
