package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

func TestCreateAnswer_MissingQuestion(t *testing.T) {
	s := newTestStore(t)

	a := &domain.Answer{
		ID:         "answer-x",
		QuestionID: "question-ghost",
		AuthorID:   "user-a",
		Content:    "orphan",
	}
	err := s.CreateAnswer(context.Background(), a)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListAnswers_ByQuestion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Answers")
	q1 := mustCreateQuestion(t, s, "user-a", []string{tag.ID}, testTime(0))
	q2 := mustCreateQuestion(t, s, "user-a", []string{tag.ID}, testTime(1))

	a1 := mustCreateAnswer(t, s, q1.ID, "user-b", testTime(2))
	a2 := mustCreateAnswer(t, s, q1.ID, "user-c", testTime(3))
	mustCreateAnswer(t, s, q2.ID, "user-b", testTime(4))

	page, err := s.ListAnswers(ctx, AnswerFilter{QuestionID: q1.ID}, domain.PageParams{Page: 1, Limit: 10, Sort: domain.SortAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, a1.ID, page.Items[0].ID)
	assert.Equal(t, a2.ID, page.Items[1].ID)
}

func TestListAnswers_ByAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Answers")
	q1 := mustCreateQuestion(t, s, "user-a", []string{tag.ID}, testTime(0))
	q2 := mustCreateQuestion(t, s, "user-a", []string{tag.ID}, testTime(1))

	mustCreateAnswer(t, s, q1.ID, "user-b", testTime(2))
	mustCreateAnswer(t, s, q2.ID, "user-b", testTime(3))
	mustCreateAnswer(t, s, q2.ID, "user-c", testTime(4))

	page, err := s.ListAnswers(ctx, AnswerFilter{AuthorID: "user-b"}, domain.PageParams{Page: 1, Limit: 10, Sort: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)

	// Both filters together intersect.
	page, err = s.ListAnswers(ctx, AnswerFilter{QuestionID: q2.ID, AuthorID: "user-b"}, domain.PageParams{Page: 1, Limit: 10, Sort: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
}

func TestListAnswers_MissingQuestion(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ListAnswers(context.Background(), AnswerFilter{QuestionID: "question-ghost"}, domain.PageParams{Page: 1, Limit: 10, Sort: domain.SortDesc})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteAnswer_LeavesVotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := mustCreateTag(t, s, "Answers")
	q := mustCreateQuestion(t, s, "user-a", []string{tag.ID}, testTime(0))
	a := mustCreateAnswer(t, s, q.ID, "user-b", testTime(1))

	_, err := s.ApplyVote(ctx, "user-c", a.ID, domain.TargetAnswer, domain.Upvote)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAnswer(ctx, a.ID))

	_, err = s.GetAnswer(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The vote ledger is untouched; a recount still sees the rows.
	count, err := s.RecountVotes(ctx, a.ID, domain.TargetAnswer)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCount{Upvotes: 1}, count)
}
