package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quorumapp/quorum-server/internal/domain"
	"github.com/quorumapp/quorum-server/internal/identity"
	"github.com/quorumapp/quorum-server/internal/service"
)

func (s *Server) registerVoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "vote",
		Method:      http.MethodPost,
		Path:        "/api/v1/votes",
		Summary:     "Cast or change a vote",
		Description: "Records the caller's vote on a question or answer; re-voting the other direction moves the vote",
		Tags:        []string{"Votes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVote)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelVote",
		Method:      http.MethodDelete,
		Path:        "/api/v1/votes",
		Summary:     "Cancel a vote",
		Description: "Removes the caller's vote on a target; a no-op when no vote exists",
		Tags:        []string{"Votes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCancelVote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVoteCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/votes/count",
		Summary:     "Get vote counts",
		Description: "Returns the up/down aggregate for a target; zeros when nobody has voted",
		Tags:        []string{"Votes"},
	}, s.handleGetVoteCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyVote",
		Method:      http.MethodGet,
		Path:        "/api/v1/votes/mine",
		Summary:     "Get my vote",
		Description: "Returns the caller's live vote on a target, if any",
		Tags:        []string{"Votes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyVote)
}

// === DTOs ===

// VoteCountResponse is the aggregate payload.
type VoteCountResponse struct {
	Upvotes   int `json:"upvotes" doc:"Live upvotes"`
	Downvotes int `json:"downvotes" doc:"Live downvotes"`
}

// VoteResponseBody is the mutation outcome payload.
type VoteResponseBody struct {
	Success bool               `json:"success" doc:"Whether the mutation applied"`
	Message string             `json:"message" doc:"Outcome description"`
	Votes   *VoteCountResponse `json:"votes,omitempty" doc:"Counts reflecting this write"`
}

// VoteOutput wraps the vote outcome for Huma.
type VoteOutput struct {
	Body VoteResponseBody
}

// VoteInput wraps the vote request for Huma.
type VoteInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		TargetID   string `json:"targetId" doc:"Question or answer ID"`
		TargetType string `json:"targetType" enum:"Question,Answer" doc:"Kind of target"`
		VoteType   string `json:"voteType" enum:"upvote,downvote" doc:"Vote direction"`
	}
}

// CancelVoteInput wraps the cancel request for Huma.
type CancelVoteInput struct {
	Authorization string `header:"Authorization"`
	TargetID      string `query:"targetId" doc:"Question or answer ID"`
	TargetType    string `query:"targetType" enum:"Question,Answer" doc:"Kind of target"`
}

// GetVoteCountInput identifies a target.
type GetVoteCountInput struct {
	TargetID   string `query:"targetId" doc:"Question or answer ID"`
	TargetType string `query:"targetType" enum:"Question,Answer" doc:"Kind of target"`
}

// VoteCountOutput wraps the aggregate for Huma.
type VoteCountOutput struct {
	Body VoteCountResponse
}

// GetMyVoteInput identifies a target.
type GetMyVoteInput struct {
	Authorization string `header:"Authorization"`
	TargetID      string `query:"targetId" doc:"Question or answer ID"`
	TargetType    string `query:"targetType" enum:"Question,Answer" doc:"Kind of target"`
}

// MyVoteOutput wraps the caller's vote for Huma.
type MyVoteOutput struct {
	Body struct {
		TargetID string `json:"targetId" doc:"Voted target"`
		VoteType string `json:"voteType" doc:"Vote direction"`
	}
}

func toVoteOutput(resp *domain.VoteResponse) *VoteOutput {
	out := &VoteOutput{}
	out.Body.Success = resp.Success
	out.Body.Message = resp.Message
	if resp.Votes != nil {
		out.Body.Votes = &VoteCountResponse{
			Upvotes:   resp.Votes.Upvotes,
			Downvotes: resp.Votes.Downvotes,
		}
	}
	return out
}

// === Handlers ===

func (s *Server) handleVote(ctx context.Context, input *VoteInput) (*VoteOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.allowVote(ctx); err != nil {
		return nil, err
	}

	resp, err := s.services.Votes.Vote(ctx, service.VoteInput{
		TargetID:   input.Body.TargetID,
		TargetType: input.Body.TargetType,
		VoteType:   input.Body.VoteType,
	})
	if err != nil {
		return nil, err
	}
	return toVoteOutput(resp), nil
}

func (s *Server) handleCancelVote(ctx context.Context, input *CancelVoteInput) (*VoteOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.allowVote(ctx); err != nil {
		return nil, err
	}

	resp, err := s.services.Votes.CancelVote(ctx, input.TargetID, input.TargetType)
	if err != nil {
		return nil, err
	}
	return toVoteOutput(resp), nil
}

func (s *Server) handleGetVoteCount(ctx context.Context, input *GetVoteCountInput) (*VoteCountOutput, error) {
	count, err := s.services.Votes.GetVoteCount(ctx, input.TargetID, input.TargetType)
	if err != nil {
		return nil, err
	}
	return &VoteCountOutput{Body: VoteCountResponse{
		Upvotes:   count.Upvotes,
		Downvotes: count.Downvotes,
	}}, nil
}

func (s *Server) handleGetMyVote(ctx context.Context, input *GetMyVoteInput) (*MyVoteOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	vote, err := s.services.Votes.GetMyVote(ctx, input.TargetID, input.TargetType)
	if err != nil {
		return nil, err
	}

	out := &MyVoteOutput{}
	out.Body.TargetID = vote.TargetID
	out.Body.VoteType = string(vote.VoteType)
	return out, nil
}

// allowVote enforces the per-user vote rate limit.
func (s *Server) allowVote(ctx context.Context) error {
	userID, ok := identity.FromContext(ctx)
	if !ok {
		return huma.Error401Unauthorized("Authentication required")
	}
	if !s.voteLimiter.Allow(userID) {
		return huma.Error429TooManyRequests("Voting too fast, slow down")
	}
	return nil
}
