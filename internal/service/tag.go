// Package service implements the application operations on top of the store,
// enforcing identity, validation and the response contracts.
package service

import (
	"context"
	"fmt"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
	"github.com/quorumapp/quorum-server/internal/id"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/slug"
	"github.com/quorumapp/quorum-server/internal/store"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// TagService manages the tag taxonomy.
type TagService struct {
	store     *store.Store
	logger    *logger.Logger
	validator *validation.Validator
}

// NewTagService creates a new tag service.
func NewTagService(s *store.Store, log *logger.Logger, v *validation.Validator) *TagService {
	return &TagService{
		store:     s,
		logger:    log,
		validator: v,
	}
}

// CreateTagInput is the payload for creating a tag.
type CreateTagInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=64"`
	Description string   `json:"description" validate:"max=500"`
	Synonyms    []string `json:"synonyms" validate:"max=20,dive,min=1,max=64"`
	ParentTagID string   `json:"parentTagId"`
}

// CreateTag creates a new tag. Requires an authenticated caller. The slug is
// derived from the name; collisions are resolved with a numeric suffix.
func (s *TagService) CreateTag(ctx context.Context, input CreateTagInput) (*domain.Tag, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	base := slug.Make(input.Name)
	if base == "" {
		return nil, apperrors.Validation("name must contain at least one letter or digit")
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, err
	}

	tag := &domain.Tag{
		ID:          tagID,
		Name:        input.Name,
		Slug:        base,
		Description: input.Description,
		Synonyms:    input.Synonyms,
		ParentTagID: input.ParentTagID,
	}
	now := nowUTC()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("Tag created", "tagId", tag.ID, "slug", tag.Slug, "by", userID)
	return tag, nil
}

// UpdateTagInput is the payload for a partial tag update. Nil fields are
// left untouched; an empty ParentTagID clears the parent link.
type UpdateTagInput struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Synonyms    *[]string `json:"synonyms,omitempty" validate:"omitempty,max=20,dive,min=1,max=64"`
	ParentTagID *string   `json:"parentTagId,omitempty"`
}

// UpdateTag applies a partial update to a tag. Requires an authenticated
// caller. Re-parenting that would close a hierarchy loop is rejected with a
// cycle error and leaves the tag unchanged.
func (s *TagService) UpdateTag(ctx context.Context, tagID string, input UpdateTagInput) (*domain.Tag, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Name != nil && slug.Make(*input.Name) == "" {
		return nil, apperrors.Validation("name must contain at least one letter or digit")
	}

	tag, err := s.store.UpdateTag(ctx, tagID, store.TagUpdate{
		Name:        input.Name,
		Description: input.Description,
		Synonyms:    input.Synonyms,
		ParentTagID: input.ParentTagID,
	}, slug.Make)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tag updated", "tagId", tagID, "by", userID)
	return tag, nil
}

// GetTag retrieves a tag by ID.
func (s *TagService) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	return s.store.GetTag(ctx, tagID)
}

// GetTagBySlug retrieves a tag by its slug.
func (s *TagService) GetTagBySlug(ctx context.Context, slugValue string) (*domain.Tag, error) {
	return s.store.GetTagBySlug(ctx, slugValue)
}

// ListTags returns all tags, most-used first.
func (s *TagService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// SearchTags returns tags matching keyword against names and synonyms,
// best matches first.
func (s *TagService) SearchTags(ctx context.Context, keyword string) ([]*domain.Tag, error) {
	if keyword == "" {
		return nil, apperrors.Validation("search keyword is required")
	}
	return s.store.SearchTags(ctx, keyword)
}

// MergeTagsInput is the payload for merging tags.
type MergeTagsInput struct {
	SourceTagIDs []string `json:"sourceTagIds" validate:"required,min=1,dive,required"`
	TargetTagID  string   `json:"targetTagId" validate:"required"`
}

// MergeTags folds the source tags into the target atomically: either every
// question is retagged and every source removed, or nothing changes.
func (s *TagService) MergeTags(ctx context.Context, input MergeTagsInput) (*domain.MergeResult, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(input.SourceTagIDs))
	seen := make(map[string]bool, len(input.SourceTagIDs))
	for _, sourceID := range input.SourceTagIDs {
		if sourceID == input.TargetTagID {
			return nil, apperrors.Validation("target tag cannot be one of the sources")
		}
		if seen[sourceID] {
			continue
		}
		seen[sourceID] = true
		sources = append(sources, sourceID)
	}

	merged, err := s.store.MergeTags(ctx, sources, input.TargetTagID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tags merged", "sources", len(sources), "targetId", input.TargetTagID, "by", userID)
	return &domain.MergeResult{
		Success:   true,
		Message:   fmt.Sprintf("merged %d tags into %s", len(sources), merged.Name),
		MergedTag: merged,
	}, nil
}

// DeleteTag removes a tag and detaches it from every question carrying it.
func (s *TagService) DeleteTag(ctx context.Context, tagID string) error {
	userID, err := identityRequire(ctx)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return err
	}

	s.logger.Info("Tag deleted", "tagId", tagID, "by", userID)
	return nil
}

// RepairTagCounts rebuilds every tag's denormalized question count from the
// membership index.
func (s *TagService) RepairTagCounts(ctx context.Context) error {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return err
	}

	for _, tag := range tags {
		if _, err := s.store.RecalculateTagQuestionCount(ctx, tag.ID); err != nil {
			return err
		}
	}

	s.logger.Info("Tag counts repaired", "tags", len(tags))
	return nil
}
