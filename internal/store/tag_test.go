package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
	"github.com/quorumapp/quorum-server/internal/slug"
)

func TestCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Machine Learning")
	assert.Equal(t, "machine-learning", tag.Slug)

	got, err := s.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.Name, got.Name)
	assert.Zero(t, got.QuestionCount)

	bySlug, err := s.GetTagBySlug(ctx, "machine-learning")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, bySlug.ID)
}

func TestCreateTag_DuplicateName(t *testing.T) {
	s := newTestStore(t)

	mustCreateTag(t, s, "Databases")

	// Uniqueness is case-insensitive.
	dup := newTag(t, "databases")
	err := s.CreateTag(context.Background(), dup)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestCreateTag_SlugDisambiguation(t *testing.T) {
	s := newTestStore(t)

	// Distinct names that normalize to the same slug get numeric suffixes.
	first := mustCreateTag(t, s, "C++")
	second := mustCreateTag(t, s, "C#")
	third := mustCreateTag(t, s, "C")

	assert.Equal(t, "c", first.Slug)
	assert.Equal(t, "c-2", second.Slug)
	assert.Equal(t, "c-3", third.Slug)
}

func TestCreateTag_ParentChecks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := mustCreateTag(t, s, "Programming")

	child := newTag(t, "Go")
	child.ParentTagID = parent.ID
	require.NoError(t, s.CreateTag(ctx, child))

	orphan := newTag(t, "Zig")
	orphan.ParentTagID = "tag-does-not-exist"
	err := s.CreateTag(ctx, orphan)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	selfish := newTag(t, "Rust")
	selfish.ParentTagID = selfish.ID
	err = s.CreateTag(ctx, selfish)
	assert.ErrorIs(t, err, apperrors.ErrCycle)
}

func TestUpdateTag_CycleRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// a ← b ← c chain; pointing a at c would close the loop.
	a := mustCreateTag(t, s, "Alpha")
	b := newTag(t, "Beta")
	b.ParentTagID = a.ID
	require.NoError(t, s.CreateTag(ctx, b))
	c := newTag(t, "Gamma")
	c.ParentTagID = b.ID
	require.NoError(t, s.CreateTag(ctx, c))

	_, err := s.UpdateTag(ctx, a.ID, TagUpdate{ParentTagID: &c.ID}, testBaseSlug)
	assert.ErrorIs(t, err, apperrors.ErrCycle)

	// The rejected update must leave the tag untouched.
	got, err := s.GetTag(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ParentTagID)
}

func TestUpdateTag_Rename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Javascript")
	mustCreateTag(t, s, "Type Script")

	name := "TypeScript"
	_, err := s.UpdateTag(ctx, tag.ID, TagUpdate{Name: &name}, testBaseSlug)
	require.NoError(t, err)

	// The old slug index is gone and the new one resolves.
	_, err = s.GetTagBySlug(ctx, "javascript")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := s.GetTagBySlug(ctx, "typescript")
	require.NoError(t, err)
	assert.Equal(t, "TypeScript", got.Name)

	// Renaming onto an existing name is rejected.
	taken := "Type Script"
	_, err = s.UpdateTag(ctx, tag.ID, TagUpdate{Name: &taken}, testBaseSlug)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestSearchTags_Ranking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateTag(t, s, "Go")
	golang := newTag(t, "Golang Internals")
	golang.Synonyms = []string{"go runtime"}
	require.NoError(t, s.CreateTag(ctx, golang))
	django := newTag(t, "Django")
	django.Synonyms = []string{"python web go-to"}
	require.NoError(t, s.CreateTag(ctx, django))
	mustCreateTag(t, s, "Rust")

	results, err := s.SearchTags(ctx, "go")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Name prefixes first (alphabetical among equals), synonym infix last.
	assert.Equal(t, "Go", results[0].Name)
	assert.Equal(t, "Golang Internals", results[1].Name)
	assert.Equal(t, "Django", results[2].Name)
}

func TestMergeTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t1 := mustCreateTag(t, s, "JS")
	t2 := mustCreateTag(t, s, "ECMAScript")
	t3 := mustCreateTag(t, s, "JavaScript")

	// Three questions: one on t1, one on t2, one on both.
	mustCreateQuestion(t, s, "user-a", []string{t1.ID}, testTime(1))
	mustCreateQuestion(t, s, "user-a", []string{t2.ID}, testTime(2))
	both := mustCreateQuestion(t, s, "user-b", []string{t1.ID, t2.ID}, testTime(3))

	merged, err := s.MergeTags(ctx, []string{t1.ID, t2.ID}, t3.ID)
	require.NoError(t, err)

	// Each question counts once, even the doubly-tagged one.
	assert.Equal(t, 3, merged.QuestionCount)

	// Sources are gone.
	_, err = s.GetTag(ctx, t1.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.GetTag(ctx, t2.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Questions now carry only the target.
	q, err := s.GetQuestion(ctx, both.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{t3.ID}, q.TagIDs)

	// The membership index agrees with the denormalized count.
	count, err := s.RecalculateTagQuestionCount(ctx, t3.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMergeTags_MissingSourceAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	source := mustCreateTag(t, s, "Old")
	target := mustCreateTag(t, s, "New")
	mustCreateQuestion(t, s, "user-a", []string{source.ID}, testTime(1))

	_, err := s.MergeTags(ctx, []string{source.ID, "tag-ghost"}, target.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Nothing moved: the failed merge is invisible.
	got, err := s.GetTag(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuestionCount)

	tgt, err := s.GetTag(ctx, target.ID)
	require.NoError(t, err)
	assert.Zero(t, tgt.QuestionCount)
}

func TestMergeTags_ReparentsChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	source := mustCreateTag(t, s, "Scripting")
	target := mustCreateTag(t, s, "Languages")
	child := newTag(t, "Lua")
	child.ParentTagID = source.ID
	require.NoError(t, s.CreateTag(ctx, child))

	_, err := s.MergeTags(ctx, []string{source.ID}, target.ID)
	require.NoError(t, err)

	got, err := s.GetTag(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.ParentTagID)
}

func TestDeleteTag_DetachesQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Deprecated")
	keep := mustCreateTag(t, s, "Keep")
	q := mustCreateQuestion(t, s, "user-a", []string{tag.ID, keep.ID}, testTime(1))

	require.NoError(t, s.DeleteTag(ctx, tag.ID))

	_, err := s.GetTag(ctx, tag.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := s.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, got.TagIDs)
}

func TestListTags_OrderedByCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	quiet := mustCreateTag(t, s, "Quiet")
	busy := mustCreateTag(t, s, "Busy")
	mustCreateQuestion(t, s, "user-a", []string{busy.ID}, testTime(1))
	mustCreateQuestion(t, s, "user-a", []string{busy.ID, quiet.ID}, testTime(2))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Busy", tags[0].Name)
	assert.Equal(t, 2, tags[0].QuestionCount)
	assert.Equal(t, 1, tags[1].QuestionCount)
}

// testBaseSlug mirrors the slug derivation the service layer injects.
func testBaseSlug(name string) string {
	return slug.Make(name)
}
