package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

func TestCreateAnswer_QuestionMustExist(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.answers.CreateAnswer(asUser("user-1"), CreateAnswerInput{
		QuestionID: "question-ghost",
		Content:    "into the void",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetAnswers_RequiresAFilter(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.answers.GetAnswers(context.Background(), AnswerListInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetAnswers_ByQuestionAndAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := asUser("author-1")

	tag, err := env.tags.CreateTag(author, CreateTagInput{Name: "Answers"})
	require.NoError(t, err)
	q, err := env.questions.CreateQuestion(author, CreateQuestionInput{
		Title:   "Any takers?",
		Content: "c",
		TagIDs:  []string{tag.ID},
	})
	require.NoError(t, err)

	_, err = env.answers.CreateAnswer(asUser("helper-1"), CreateAnswerInput{QuestionID: q.ID, Content: "first"})
	require.NoError(t, err)
	_, err = env.answers.CreateAnswer(asUser("helper-2"), CreateAnswerInput{QuestionID: q.ID, Content: "second"})
	require.NoError(t, err)

	page, err := env.answers.GetAnswers(context.Background(), AnswerListInput{QuestionID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)

	page, err = env.answers.GetAnswers(context.Background(), AnswerListInput{AuthorID: "helper-1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "first", page.Items[0].Content)

	// Missing question surfaces as not found, not an empty page.
	_, err = env.answers.GetAnswers(context.Background(), AnswerListInput{QuestionID: "question-ghost"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateAnswer_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	author := asUser("author-1")

	tag, err := env.tags.CreateTag(author, CreateTagInput{Name: "Edits"})
	require.NoError(t, err)
	q, err := env.questions.CreateQuestion(author, CreateQuestionInput{
		Title:   "Q",
		Content: "c",
		TagIDs:  []string{tag.ID},
	})
	require.NoError(t, err)

	a, err := env.answers.CreateAnswer(asUser("helper-1"), CreateAnswerInput{QuestionID: q.ID, Content: "draft"})
	require.NoError(t, err)

	content := "polished"
	_, err = env.answers.UpdateAnswer(asUser("intruder"), a.ID, UpdateAnswerInput{Content: &content})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := env.answers.UpdateAnswer(asUser("helper-1"), a.ID, UpdateAnswerInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "polished", updated.Content)
}

func TestRegisterAndMintToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.users.Register(ctx, RegisterInput{Email: "dev@example.com", DisplayName: "Dev"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	// Duplicate email, case-insensitively.
	_, err = env.users.Register(ctx, RegisterInput{Email: "DEV@example.com", DisplayName: "Dev Again"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	minted, err := env.users.MintToken(ctx, "dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, minted.User.ID)
}
