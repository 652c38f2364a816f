package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumapp/quorum-server/internal/domain"
	"github.com/quorumapp/quorum-server/internal/id"
	"github.com/quorumapp/quorum-server/internal/slug"
)

// newTestStore creates a Store backed by a temp directory, cleaned up with
// the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

// testTime returns a stable timestamp n seconds into an arbitrary epoch, so
// ordering assertions don't depend on wall-clock resolution.
func testTime(n int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
}

// newTag builds an unsaved tag with derived slug and fresh timestamps.
func newTag(t *testing.T, name string) *domain.Tag {
	t.Helper()

	now := time.Now()
	return &domain.Tag{
		ID:        id.MustGenerate(id.PrefixTag),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// mustCreateTag persists a tag by name and returns it.
func mustCreateTag(t *testing.T, s *Store, name string) *domain.Tag {
	t.Helper()

	tag := newTag(t, name)
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}

// mustCreateQuestion persists a question with the given tags and creation
// time and returns it.
func mustCreateQuestion(t *testing.T, s *Store, authorID string, tagIDs []string, createdAt time.Time) *domain.Question {
	t.Helper()

	q := &domain.Question{
		ID:        id.MustGenerate(id.PrefixQuestion),
		Title:     "How does this work?",
		Content:   "Looking for details.",
		AuthorID:  authorID,
		TagIDs:    tagIDs,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, s.CreateQuestion(context.Background(), q))
	return q
}

// mustCreateAnswer persists an answer on a question and returns it.
func mustCreateAnswer(t *testing.T, s *Store, questionID, authorID string, createdAt time.Time) *domain.Answer {
	t.Helper()

	a := &domain.Answer{
		ID:         id.MustGenerate(id.PrefixAnswer),
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    "Here is how.",
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, s.CreateAnswer(context.Background(), a))
	return a
}
