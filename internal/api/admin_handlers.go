package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recountVotes",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/recount-votes",
		Summary:     "Recount votes",
		Description: "Rebuilds the cached vote aggregate of one target from the ledger",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecountVotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "recountAllVotes",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/recount-all-votes",
		Summary:     "Recount all votes",
		Description: "Rebuilds every cached vote aggregate from the ledger",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecountAllVotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "repairTagCounts",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/repair-tag-counts",
		Summary:     "Repair tag counts",
		Description: "Recomputes every tag's question count from the membership index",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRepairTagCounts)
}

// RecountVotesInput identifies the target to recount.
type RecountVotesInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		TargetID   string `json:"targetId" doc:"Question or answer ID"`
		TargetType string `json:"targetType" enum:"Question,Answer" doc:"Kind of target"`
	}
}

// AdminRequestInput carries the bearer token for parameterless admin calls.
type AdminRequestInput struct {
	Authorization string `header:"Authorization"`
}

func (s *Server) handleRecountVotes(ctx context.Context, input *RecountVotesInput) (*VoteCountOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Votes.RecountVotes(ctx, input.Body.TargetID, input.Body.TargetType)
	if err != nil {
		return nil, err
	}

	return &VoteCountOutput{Body: VoteCountResponse{
		Upvotes:   count.Upvotes,
		Downvotes: count.Downvotes,
	}}, nil
}

func (s *Server) handleRecountAllVotes(ctx context.Context, input *AdminRequestInput) (*MessageOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Votes.RecountAllVotes(ctx); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Vote counts rebuilt"}}, nil
}

func (s *Server) handleRepairTagCounts(ctx context.Context, input *AdminRequestInput) (*MessageOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tags.RepairTagCounts(ctx); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag question counts repaired"}}, nil
}
