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

// QuestionService manages questions and their filtered, paginated listings.
type QuestionService struct {
	store      *store.Store
	logger     *logger.Logger
	validator  *validation.Validator
	images     images.Resolver
	pagination config.PaginationConfig
}

// NewQuestionService creates a new question service.
func NewQuestionService(s *store.Store, log *logger.Logger, v *validation.Validator, resolver images.Resolver, pagination config.PaginationConfig) *QuestionService {
	return &QuestionService{
		store:      s,
		logger:     log,
		validator:  v,
		images:     resolver,
		pagination: pagination,
	}
}

// CreateQuestionInput is the payload for posting a question.
type CreateQuestionInput struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required,min=1"`
	TagIDs   []string `json:"tagIds" validate:"max=10,dive,required"`
	ImageIDs []string `json:"imageIds" validate:"max=10,dive,required"`
}

// CreateQuestion posts a new question authored by the caller. Every
// referenced tag must resolve; tag counts move in the same write.
func (s *QuestionService) CreateQuestion(ctx context.Context, input CreateQuestionInput) (*QuestionView, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	questionID, err := id.Generate(id.PrefixQuestion)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	q := &domain.Question{
		ID:        questionID,
		Title:     input.Title,
		Content:   input.Content,
		AuthorID:  userID,
		TagIDs:    dedupe(input.TagIDs),
		ImageIDs:  input.ImageIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("Question created", "questionId", q.ID, "authorId", userID, "tags", len(q.TagIDs))
	return s.buildQuestionView(ctx, q)
}

// GetQuestion retrieves a question with resolved tags, image URLs and the
// current vote aggregate.
func (s *QuestionService) GetQuestion(ctx context.Context, questionID string) (*QuestionView, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.buildQuestionView(ctx, q)
}

// UpdateQuestionInput is the payload for a partial question update.
type UpdateQuestionInput struct {
	Title    *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content  *string   `json:"content,omitempty" validate:"omitempty,min=1"`
	TagIDs   *[]string `json:"tagIds,omitempty" validate:"omitempty,max=10,dive,required"`
	ImageIDs *[]string `json:"imageIds,omitempty" validate:"omitempty,max=10,dive,required"`
}

// UpdateQuestion applies a partial update. Only the author may edit.
func (s *QuestionService) UpdateQuestion(ctx context.Context, questionID string, input UpdateQuestionInput) (*QuestionView, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	existing, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != userID {
		return nil, apperrors.Forbidden("only the author may edit this question")
	}

	q, err := s.store.UpdateQuestion(ctx, questionID, store.QuestionUpdate{
		Title:    input.Title,
		Content:  input.Content,
		TagIDs:   input.TagIDs,
		ImageIDs: input.ImageIDs,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question updated", "questionId", questionID, "by", userID)
	return s.buildQuestionView(ctx, q)
}

// DeleteQuestion removes a question. Only the author may delete. Answers and
// votes on the question are left behind; readers tolerate the dangling
// references.
func (s *QuestionService) DeleteQuestion(ctx context.Context, questionID string) error {
	userID, err := identityRequire(ctx)
	if err != nil {
		return err
	}

	existing, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if existing.AuthorID != userID {
		return apperrors.Forbidden("only the author may delete this question")
	}

	if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}

	s.logger.Info("Question deleted", "questionId", questionID, "by", userID)
	return nil
}

// QuestionListInput narrows and pages a question listing.
type QuestionListInput struct {
	TagIDs    []string `json:"tagIds,omitempty"`
	TagMatch  string   `json:"tagMatch,omitempty"`
	AuthorID  string   `json:"authorId,omitempty"`
	Page      int      `json:"page,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	SortOrder string   `json:"sortOrder,omitempty"`
}

// GetQuestions returns one page of enriched questions. Tag filtering
// supports ANY (default) and ALL semantics; ordering is by creation time
// with the configured default direction. Out-of-range pages clamp.
func (s *QuestionService) GetQuestions(ctx context.Context, input QuestionListInput) (*domain.Page[*QuestionView], error) {
	match := domain.TagMatchAny
	if input.TagMatch != "" {
		match = domain.TagMatch(input.TagMatch)
		if !match.Valid() {
			return nil, apperrors.Validationf("invalid tag match mode %q", input.TagMatch)
		}
	}

	fallback := domain.ParseSortOrder(s.pagination.DefaultSortOrder, domain.SortDesc)
	params := domain.PageParams{
		Page:  input.Page,
		Limit: input.Limit,
		Sort:  domain.ParseSortOrder(input.SortOrder, fallback),
	}
	params.Normalize(s.pagination.DefaultLimit, s.pagination.MaxLimit, fallback)

	page, err := s.store.ListQuestions(ctx, store.QuestionFilter{
		TagIDs:   dedupe(input.TagIDs),
		TagMatch: match,
		AuthorID: input.AuthorID,
	}, params)
	if err != nil {
		return nil, err
	}

	views := make([]*QuestionView, 0, len(page.Items))
	for _, q := range page.Items {
		view, err := s.buildQuestionView(ctx, q)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &domain.Page[*QuestionView]{
		Items:       views,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}, nil
}

// buildQuestionView joins a question with its tags, image URLs and vote
// aggregate. Tags deleted since the question was written are skipped rather
// than failing the read.
func (s *QuestionService) buildQuestionView(ctx context.Context, q *domain.Question) (*QuestionView, error) {
	tags := make([]TagRef, 0, len(q.TagIDs))
	for _, tagID := range q.TagIDs {
		tag, err := s.store.GetTag(ctx, tagID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		tags = append(tags, TagRef{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}

	votes, err := s.store.GetVoteCount(ctx, q.ID, domain.TargetQuestion)
	if err != nil {
		return nil, err
	}

	return &QuestionView{
		ID:        q.ID,
		Title:     q.Title,
		Content:   q.Content,
		AuthorID:  q.AuthorID,
		Tags:      tags,
		ImageURLs: s.images.ResolveURLs(q.ImageIDs),
		Votes:     votes,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}, nil
}

// dedupe drops duplicate IDs preserving first-seen order.
func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
