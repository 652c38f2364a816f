package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quorumapp/quorum-server/internal/domain"
	"github.com/quorumapp/quorum-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags, most-used first",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/search",
		Summary:     "Search tags",
		Description: "Returns tags matching a keyword against names and synonyms, best matches first",
		Tags:        []string{"Tags"},
	}, s.handleSearchTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a new tag with a slug derived from its name",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/slug/{slug}",
		Summary:     "Get tag by slug",
		Description: "Returns a tag by its URL slug",
		Tags:        []string{"Tags"},
	}, s.handleGetTagBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Applies a partial update to a tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and detaches it from its questions",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/merge",
		Summary:     "Merge tags",
		Description: "Atomically folds source tags into a target tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMergeTags)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID            string    `json:"id" doc:"Tag ID"`
	Name          string    `json:"name" doc:"Tag name"`
	Slug          string    `json:"slug" doc:"URL-safe slug"`
	Description   string    `json:"description,omitempty" doc:"Tag description"`
	Synonyms      []string  `json:"synonyms,omitempty" doc:"Alternative names"`
	ParentTagID   string    `json:"parentTagId,omitempty" doc:"Parent tag in the hierarchy"`
	QuestionCount int       `json:"questionCount" doc:"Number of questions carrying this tag"`
	CreatedAt     time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updatedAt" doc:"Last update time"`
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:            t.ID,
		Name:          t.Name,
		Slug:          t.Slug,
		Description:   t.Description,
		Synonyms:      t.Synonyms,
		ParentTagID:   t.ParentTagID,
		QuestionCount: t.QuestionCount,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ListTagsOutput wraps a tag list for Huma.
type ListTagsOutput struct {
	Body struct {
		Tags []TagResponse `json:"tags" doc:"List of tags"`
	}
}

// SearchTagsInput contains parameters for searching tags.
type SearchTagsInput struct {
	Keyword string `query:"keyword" doc:"Keyword to match against names and synonyms"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Name        string   `json:"name" doc:"Tag name"`
		Description string   `json:"description,omitempty" doc:"Tag description"`
		Synonyms    []string `json:"synonyms,omitempty" doc:"Alternative names"`
		ParentTagID string   `json:"parentTagId,omitempty" doc:"Parent tag in the hierarchy"`
	}
}

// TagOutput wraps a single tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// GetTagBySlugInput contains parameters for getting a tag by slug.
type GetTagBySlugInput struct {
	Slug string `path:"slug" doc:"Tag slug"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
	Body          struct {
		Name        *string   `json:"name,omitempty" doc:"New tag name"`
		Description *string   `json:"description,omitempty" doc:"New description"`
		Synonyms    *[]string `json:"synonyms,omitempty" doc:"New synonym list"`
		ParentTagID *string   `json:"parentTagId,omitempty" doc:"New parent tag; empty string clears"`
	}
}

// DeleteTagInput contains parameters for deleting a tag.
type DeleteTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// MergeTagsInput wraps the merge request for Huma.
type MergeTagsInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		SourceTagIDs []string `json:"sourceTagIds" doc:"Tags to fold into the target"`
		TargetTagID  string   `json:"targetTagId" doc:"Surviving tag"`
	}
}

// MergeTagsOutput wraps the merge result for Huma.
type MergeTagsOutput struct {
	Body struct {
		Success   bool         `json:"success" doc:"Whether the merge applied"`
		Message   string       `json:"message" doc:"Outcome description"`
		MergedTag *TagResponse `json:"mergedTag,omitempty" doc:"The surviving tag after the merge"`
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tags.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListTagsOutput{}
	out.Body.Tags = make([]TagResponse, len(tags))
	for i, t := range tags {
		out.Body.Tags[i] = toTagResponse(t)
	}
	return out, nil
}

func (s *Server) handleSearchTags(ctx context.Context, input *SearchTagsInput) (*ListTagsOutput, error) {
	tags, err := s.services.Tags.SearchTags(ctx, input.Keyword)
	if err != nil {
		return nil, err
	}

	out := &ListTagsOutput{}
	out.Body.Tags = make([]TagResponse, len(tags))
	for i, t := range tags {
		out.Body.Tags[i] = toTagResponse(t)
	}
	return out, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.CreateTag(ctx, service.CreateTagInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Synonyms:    input.Body.Synonyms,
		ParentTagID: input.Body.ParentTagID,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	tag, err := s.services.Tags.GetTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleGetTagBySlug(ctx context.Context, input *GetTagBySlugInput) (*TagOutput, error) {
	tag, err := s.services.Tags.GetTagBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.UpdateTag(ctx, input.ID, service.UpdateTagInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Synonyms:    input.Body.Synonyms,
		ParentTagID: input.Body.ParentTagID,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*MessageOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tags.DeleteTag(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleMergeTags(ctx context.Context, input *MergeTagsInput) (*MergeTagsOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Tags.MergeTags(ctx, service.MergeTagsInput{
		SourceTagIDs: input.Body.SourceTagIDs,
		TargetTagID:  input.Body.TargetTagID,
	})
	if err != nil {
		return nil, err
	}

	out := &MergeTagsOutput{}
	out.Body.Success = result.Success
	out.Body.Message = result.Message
	if result.MergedTag != nil {
		merged := toTagResponse(result.MergedTag)
		out.Body.MergedTag = &merged
	}
	return out, nil
}
