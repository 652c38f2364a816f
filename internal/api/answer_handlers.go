package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quorumapp/quorum-server/internal/service"
)

func (s *Server) registerAnswerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAnswers",
		Method:      http.MethodGet,
		Path:        "/api/v1/answers",
		Summary:     "List answers",
		Description: "Returns a paginated page of answers for a question, an author, or both",
		Tags:        []string{"Answers"},
	}, s.handleGetAnswers)

	huma.Register(s.api, huma.Operation{
		OperationID: "createAnswer",
		Method:      http.MethodPost,
		Path:        "/api/v1/answers",
		Summary:     "Create answer",
		Description: "Posts a new answer authored by the caller",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnswer",
		Method:      http.MethodGet,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Get answer",
		Description: "Returns an answer with image URLs and vote counts",
		Tags:        []string{"Answers"},
	}, s.handleGetAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAnswer",
		Method:      http.MethodPatch,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Update answer",
		Description: "Applies a partial update; only the author may edit",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateAnswer)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAnswer",
		Method:      http.MethodDelete,
		Path:        "/api/v1/answers/{id}",
		Summary:     "Delete answer",
		Description: "Removes an answer; only the author may delete",
		Tags:        []string{"Answers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAnswer)
}

// === DTOs ===

// GetAnswersInput contains filtering and paging parameters. At least one of
// questionId or authorId is required.
type GetAnswersInput struct {
	QuestionID string `query:"questionId" doc:"Question whose answers to list"`
	AuthorID   string `query:"authorId" doc:"Only answers by this author"`
	Page       int    `query:"page" doc:"1-indexed page number"`
	Limit      int    `query:"limit" doc:"Items per page"`
	SortOrder  string `query:"sortOrder" enum:"asc,desc" doc:"Creation-time sort direction"`
}

// AnswerPageOutput wraps one page of answers for Huma.
type AnswerPageOutput struct {
	Body struct {
		Items []*service.AnswerView `json:"items" doc:"Answers on this page"`
		PageMeta
	}
}

// AnswerOutput wraps a single answer view for Huma.
type AnswerOutput struct {
	Body *service.AnswerView
}

// CreateAnswerInput wraps the create answer request for Huma.
type CreateAnswerInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		QuestionID string   `json:"questionId" doc:"Question being answered"`
		Content    string   `json:"content" doc:"Answer body"`
		ImageIDs   []string `json:"imageIds,omitempty" doc:"Attached image IDs"`
	}
}

// GetAnswerInput contains parameters for getting an answer.
type GetAnswerInput struct {
	ID string `path:"id" doc:"Answer ID"`
}

// UpdateAnswerInput wraps the update answer request for Huma.
type UpdateAnswerInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Answer ID"`
	Body          struct {
		Content  *string   `json:"content,omitempty" doc:"New body"`
		ImageIDs *[]string `json:"imageIds,omitempty" doc:"Replacement image set"`
	}
}

// DeleteAnswerInput contains parameters for deleting an answer.
type DeleteAnswerInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Answer ID"`
}

// === Handlers ===

func (s *Server) handleGetAnswers(ctx context.Context, input *GetAnswersInput) (*AnswerPageOutput, error) {
	page, err := s.services.Answers.GetAnswers(ctx, service.AnswerListInput{
		QuestionID: input.QuestionID,
		AuthorID:   input.AuthorID,
		Page:       input.Page,
		Limit:      input.Limit,
		SortOrder:  input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	out := &AnswerPageOutput{}
	out.Body.Items = page.Items
	out.Body.PageMeta = PageMeta{
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}
	return out, nil
}

func (s *Server) handleCreateAnswer(ctx context.Context, input *CreateAnswerInput) (*AnswerOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Answers.CreateAnswer(ctx, service.CreateAnswerInput{
		QuestionID: input.Body.QuestionID,
		Content:    input.Body.Content,
		ImageIDs:   input.Body.ImageIDs,
	})
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: view}, nil
}

func (s *Server) handleGetAnswer(ctx context.Context, input *GetAnswerInput) (*AnswerOutput, error) {
	view, err := s.services.Answers.GetAnswer(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AnswerOutput{Body: view}, nil
}

func (s *Server) handleUpdateAnswer(ctx context.Context, input *UpdateAnswerInput) (*AnswerOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Answers.UpdateAnswer(ctx, input.ID, service.UpdateAnswerInput{
		Content:  input.Body.Content,
		ImageIDs: input.Body.ImageIDs,
	})
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{Body: view}, nil
}

func (s *Server) handleDeleteAnswer(ctx context.Context, input *DeleteAnswerInput) (*MessageOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Answers.DeleteAnswer(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Answer deleted"}}, nil
}
