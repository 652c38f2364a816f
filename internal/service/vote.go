package service

import (
	"context"

	"github.com/quorumapp/quorum-server/internal/domain"
	apperrors "github.com/quorumapp/quorum-server/internal/errors"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/store"
)

// VoteService records, changes and cancels votes, and serves the cached
// aggregates.
type VoteService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewVoteService creates a new vote service.
func NewVoteService(s *store.Store, log *logger.Logger) *VoteService {
	return &VoteService{
		store:  s,
		logger: log,
	}
}

// VoteInput identifies a vote action.
type VoteInput struct {
	TargetID   string `json:"targetId"`
	TargetType string `json:"targetType"`
	VoteType   string `json:"voteType"`
}

// Vote casts or changes the caller's vote on a target. Re-casting the same
// direction is idempotent; casting the other direction moves the vote. The
// returned counts reflect this write.
func (s *VoteService) Vote(ctx context.Context, input VoteInput) (*domain.VoteResponse, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}

	targetType := domain.TargetType(input.TargetType)
	if !targetType.Valid() {
		return nil, apperrors.Validationf("invalid target type %q", input.TargetType)
	}
	voteType := domain.VoteType(input.VoteType)
	if !voteType.Valid() {
		return nil, apperrors.Validationf("invalid vote type %q", input.VoteType)
	}
	if input.TargetID == "" {
		return nil, apperrors.Validation("target id is required")
	}

	count, err := s.store.ApplyVote(ctx, userID, input.TargetID, targetType, voteType)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Vote applied",
		"userId", userID,
		"targetId", input.TargetID,
		"voteType", voteType)
	return &domain.VoteResponse{
		Success: true,
		Message: "vote recorded",
		Votes:   count,
	}, nil
}

// CancelVote removes the caller's vote on a target. Cancelling when no vote
// exists succeeds without changing the counts.
func (s *VoteService) CancelVote(ctx context.Context, targetID, targetTypeRaw string) (*domain.VoteResponse, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}

	targetType := domain.TargetType(targetTypeRaw)
	if !targetType.Valid() {
		return nil, apperrors.Validationf("invalid target type %q", targetTypeRaw)
	}
	if targetID == "" {
		return nil, apperrors.Validation("target id is required")
	}

	count, err := s.store.CancelVote(ctx, userID, targetID, targetType)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Vote cancelled", "userId", userID, "targetId", targetID)
	return &domain.VoteResponse{
		Success: true,
		Message: "vote cancelled",
		Votes:   count,
	}, nil
}

// GetVoteCount returns the aggregate for a target. Targets nobody has voted
// on report zeros.
func (s *VoteService) GetVoteCount(ctx context.Context, targetID, targetTypeRaw string) (domain.VoteCount, error) {
	targetType := domain.TargetType(targetTypeRaw)
	if !targetType.Valid() {
		return domain.VoteCount{}, apperrors.Validationf("invalid target type %q", targetTypeRaw)
	}
	return s.store.GetVoteCount(ctx, targetID, targetType)
}

// GetMyVote returns the caller's live vote on a target, if any.
func (s *VoteService) GetMyVote(ctx context.Context, targetID, targetTypeRaw string) (*domain.Vote, error) {
	userID, err := identityRequire(ctx)
	if err != nil {
		return nil, err
	}

	targetType := domain.TargetType(targetTypeRaw)
	if !targetType.Valid() {
		return nil, apperrors.Validationf("invalid target type %q", targetTypeRaw)
	}
	return s.store.GetVote(ctx, userID, targetID, targetType)
}

// RecountVotes rebuilds the cached aggregate of one target from the ledger.
func (s *VoteService) RecountVotes(ctx context.Context, targetID, targetTypeRaw string) (domain.VoteCount, error) {
	targetType := domain.TargetType(targetTypeRaw)
	if !targetType.Valid() {
		return domain.VoteCount{}, apperrors.Validationf("invalid target type %q", targetTypeRaw)
	}
	return s.store.RecountVotes(ctx, targetID, targetType)
}

// RecountAllVotes repairs every cached aggregate from the ledger.
func (s *VoteService) RecountAllVotes(ctx context.Context) error {
	return s.store.RecountAllVotes(ctx)
}
