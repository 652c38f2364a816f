package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quorumapp/quorum-server/internal/service"
)

func (s *Server) registerQuestionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getQuestions",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions",
		Summary:     "List questions",
		Description: "Returns a filtered, paginated page of questions ordered by creation time",
		Tags:        []string{"Questions"},
	}, s.handleGetQuestions)

	huma.Register(s.api, huma.Operation{
		OperationID: "createQuestion",
		Method:      http.MethodPost,
		Path:        "/api/v1/questions",
		Summary:     "Create question",
		Description: "Posts a new question authored by the caller",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "getQuestion",
		Method:      http.MethodGet,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Get question",
		Description: "Returns a question with resolved tags, image URLs and vote counts",
		Tags:        []string{"Questions"},
	}, s.handleGetQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateQuestion",
		Method:      http.MethodPatch,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Update question",
		Description: "Applies a partial update; only the author may edit",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateQuestion)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteQuestion",
		Method:      http.MethodDelete,
		Path:        "/api/v1/questions/{id}",
		Summary:     "Delete question",
		Description: "Removes a question; only the author may delete",
		Tags:        []string{"Questions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteQuestion)
}

// === DTOs ===

// PageMeta carries the pagination envelope fields.
type PageMeta struct {
	TotalItems  int `json:"totalItems" doc:"Matching items across all pages"`
	TotalPages  int `json:"totalPages" doc:"Page count at the current limit"`
	CurrentPage int `json:"currentPage" doc:"The page actually served (clamped)"`
}

// GetQuestionsInput contains filtering and paging parameters.
type GetQuestionsInput struct {
	TagIDs    []string `query:"tagId" doc:"Tag IDs to filter by (repeatable)"`
	TagMatch  string   `query:"tagMatch" enum:"ANY,ALL" doc:"Whether a question must carry any or all of the tags"`
	AuthorID  string   `query:"authorId" doc:"Only questions by this author"`
	Page      int      `query:"page" doc:"1-indexed page number"`
	Limit     int      `query:"limit" doc:"Items per page"`
	SortOrder string   `query:"sortOrder" enum:"asc,desc" doc:"Creation-time sort direction"`
}

// QuestionPageOutput wraps one page of questions for Huma.
type QuestionPageOutput struct {
	Body struct {
		Items []*service.QuestionView `json:"items" doc:"Questions on this page"`
		PageMeta
	}
}

// QuestionOutput wraps a single question view for Huma.
type QuestionOutput struct {
	Body *service.QuestionView
}

// CreateQuestionInput wraps the create question request for Huma.
type CreateQuestionInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Title    string   `json:"title" doc:"Question title"`
		Content  string   `json:"content" doc:"Question body"`
		TagIDs   []string `json:"tagIds,omitempty" doc:"Tags to attach"`
		ImageIDs []string `json:"imageIds,omitempty" doc:"Attached image IDs"`
	}
}

// GetQuestionInput contains parameters for getting a question.
type GetQuestionInput struct {
	ID string `path:"id" doc:"Question ID"`
}

// UpdateQuestionInput wraps the update question request for Huma.
type UpdateQuestionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Question ID"`
	Body          struct {
		Title    *string   `json:"title,omitempty" doc:"New title"`
		Content  *string   `json:"content,omitempty" doc:"New body"`
		TagIDs   *[]string `json:"tagIds,omitempty" doc:"Replacement tag set"`
		ImageIDs *[]string `json:"imageIds,omitempty" doc:"Replacement image set"`
	}
}

// DeleteQuestionInput contains parameters for deleting a question.
type DeleteQuestionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Question ID"`
}

// === Handlers ===

func (s *Server) handleGetQuestions(ctx context.Context, input *GetQuestionsInput) (*QuestionPageOutput, error) {
	page, err := s.services.Questions.GetQuestions(ctx, service.QuestionListInput{
		TagIDs:    input.TagIDs,
		TagMatch:  input.TagMatch,
		AuthorID:  input.AuthorID,
		Page:      input.Page,
		Limit:     input.Limit,
		SortOrder: input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	out := &QuestionPageOutput{}
	out.Body.Items = page.Items
	out.Body.PageMeta = PageMeta{
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}
	return out, nil
}

func (s *Server) handleCreateQuestion(ctx context.Context, input *CreateQuestionInput) (*QuestionOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Questions.CreateQuestion(ctx, service.CreateQuestionInput{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		TagIDs:   input.Body.TagIDs,
		ImageIDs: input.Body.ImageIDs,
	})
	if err != nil {
		return nil, err
	}

	return &QuestionOutput{Body: view}, nil
}

func (s *Server) handleGetQuestion(ctx context.Context, input *GetQuestionInput) (*QuestionOutput, error) {
	view, err := s.services.Questions.GetQuestion(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &QuestionOutput{Body: view}, nil
}

func (s *Server) handleUpdateQuestion(ctx context.Context, input *UpdateQuestionInput) (*QuestionOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Questions.UpdateQuestion(ctx, input.ID, service.UpdateQuestionInput{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		TagIDs:   input.Body.TagIDs,
		ImageIDs: input.Body.ImageIDs,
	})
	if err != nil {
		return nil, err
	}

	return &QuestionOutput{Body: view}, nil
}

func (s *Server) handleDeleteQuestion(ctx context.Context, input *DeleteQuestionInput) (*MessageOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Questions.DeleteQuestion(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Question deleted"}}, nil
}
