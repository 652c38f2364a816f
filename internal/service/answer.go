package service

import (
	"context"

	"github.com/quorumapp/quorum-server/internal/config"
	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
	"github.com/quorumapp/quorum-server/internal/id"
	"github.com/quorumapp/quorum-server/internal/images"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/store"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// AnswerService manages answers to questions.
type AnswerService struct {
	store      *store.Store
	logger     *logger.Logger
	validator  *validation.Validator
	images     images.Resolver
	pagination config.PaginationConfig
}

// NewAnswerService creates a new answer service.
func NewAnswerService(s *store.Store, log *logger.Logger, v *validation.Validator, resolver images.Resolver, pagination config.PaginationConfig) *AnswerService {
	return &AnswerService{
		store:      s,
		logger:     log,
		validator:  v,
		images:     resolver,
		pagination: pagination,
	}
}

// CreateAnswerInput is the payload for posting an answer.
type CreateAnswerInput struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Content    string   `json:"content" validate:"required,min=1"`
	ImageIDs   []string `json:"imageIds" validate:"max=10,dive,required"`
}

// CreateAnswer posts an answer authored by the caller. The question must
// still exist.
func (s *AnswerService) CreateAnswer(ctx context.Context, input CreateAnswerInput) (*AnswerView, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	answerID, err := id.Generate(id.PrefixAnswer)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	a := &domain.Answer{
		ID:         answerID,
		QuestionID: input.QuestionID,
		Content:    input.Content,
		AuthorID:   userID,
		ImageIDs:   input.ImageIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateAnswer(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("Answer created", "answerId", a.ID, "questionId", a.QuestionID, "authorId", userID)
	return s.buildAnswerView(ctx, a)
}

// GetAnswer retrieves an answer with image URLs and the vote aggregate.
func (s *AnswerService) GetAnswer(ctx context.Context, answerID string) (*AnswerView, error) {
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	return s.buildAnswerView(ctx, a)
}

// UpdateAnswerInput is the payload for a partial answer update.
type UpdateAnswerInput struct {
	Content  *string   `json:"content,omitempty" validate:"omitempty,min=1"`
	ImageIDs *[]string `json:"imageIds,omitempty" validate:"omitempty,max=10,dive,required"`
}

// UpdateAnswer applies a partial update. Only the author may edit.
func (s *AnswerService) UpdateAnswer(ctx context.Context, answerID string, input UpdateAnswerInput) (*AnswerView, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	existing, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != userID {
		return nil, apperrors.Forbidden("only the author may edit this answer")
	}

	a, err := s.store.UpdateAnswerContent(ctx, answerID, input.Content, input.ImageIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer updated", "answerId", answerID, "by", userID)
	return s.buildAnswerView(ctx, a)
}

// DeleteAnswer removes an answer. Only the author may delete. Votes on the
// answer are left behind.
func (s *AnswerService) DeleteAnswer(ctx context.Context, answerID string) error {
	userID, err := identityRequire(ctx)
	if err != nil {
		return err
	}

	existing, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	if existing.AuthorID != userID {
		return apperrors.Forbidden("only the author may delete this answer")
	}

	if err := s.store.DeleteAnswer(ctx, answerID); err != nil {
		return err
	}

	s.logger.Info("Answer deleted", "answerId", answerID, "by", userID)
	return nil
}

// AnswerListInput narrows and pages an answer listing. At least one of
// QuestionID or AuthorID must be set.
type AnswerListInput struct {
	QuestionID string `json:"questionId,omitempty"`
	AuthorID   string `json:"authorId,omitempty"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	SortOrder  string `json:"sortOrder,omitempty"`
}

// GetAnswers returns one page of enriched answers for a question, an author,
// or their intersection. A listing constrained by neither is rejected: an
// unbounded scan of every answer is never what a caller wants.
func (s *AnswerService) GetAnswers(ctx context.Context, input AnswerListInput) (*domain.Page[*AnswerView], error) {
	if input.QuestionID == "" && input.AuthorID == "" {
		return nil, apperrors.Validation("either questionId or authorId is required")
	}

	fallback := domain.ParseSortOrder(s.pagination.DefaultSortOrder, domain.SortDesc)
	params := domain.PageParams{
		Page:  input.Page,
		Limit: input.Limit,
		Sort:  domain.ParseSortOrder(input.SortOrder, fallback),
	}
	params.Normalize(s.pagination.DefaultLimit, s.pagination.MaxLimit, fallback)

	page, err := s.store.ListAnswers(ctx, store.AnswerFilter{
		QuestionID: input.QuestionID,
		AuthorID:   input.AuthorID,
	}, params)
	if err != nil {
		return nil, err
	}

	views := make([]*AnswerView, 0, len(page.Items))
	for _, a := range page.Items {
		view, err := s.buildAnswerView(ctx, a)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &domain.Page[*AnswerView]{
		Items:       views,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}, nil
}

// buildAnswerView joins an answer with its image URLs and vote aggregate.
func (s *AnswerService) buildAnswerView(ctx context.Context, a *domain.Answer) (*AnswerView, error) {
	votes, err := s.store.GetVoteCount(ctx, a.ID, domain.TargetAnswer)
	if err != nil {
		return nil, err
	}

	return &AnswerView{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Content:    a.Content,
		AuthorID:   a.AuthorID,
		ImageURLs:  s.images.ResolveURLs(a.ImageIDs),
		Votes:      votes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}, nil
}
