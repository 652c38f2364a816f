package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quorumapp/quorum-server/internal/identity"
	"github.com/quorumapp/quorum-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register",
		Description: "Creates an account and returns an access token",
		Tags:        []string{"Auth"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "mintToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/token",
		Summary:     "Mint token",
		Description: "Issues an access token for an existing account by email (development identity bootstrap)",
		Tags:        []string{"Auth"},
	}, s.handleMintToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated account",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// UserResponse contains account data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"displayName" doc:"Display name"`
	CreatedAt   time.Time `json:"createdAt" doc:"Creation time"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body struct {
		Email       string `json:"email" doc:"Email address"`
		DisplayName string `json:"displayName" doc:"Display name"`
	}
}

// TokenOutput wraps an account plus access token for Huma.
type TokenOutput struct {
	Body struct {
		User        UserResponse `json:"user" doc:"The account"`
		AccessToken string       `json:"accessToken" doc:"PASETO v4.local access token"`
	}
}

// MintTokenInput wraps the mint request for Huma.
type MintTokenInput struct {
	Body struct {
		Email string `json:"email" doc:"Email of an existing account"`
	}
}

// CurrentUserInput carries the bearer token.
type CurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps an account for Huma.
type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

func toUserResponse(result *service.RegisterResult) (UserResponse, string) {
	return UserResponse{
		ID:          result.User.ID,
		Email:       result.User.Email,
		DisplayName: result.User.DisplayName,
		CreatedAt:   result.User.CreatedAt,
	}, result.AccessToken
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*TokenOutput, error) {
	result, err := s.services.Users.Register(ctx, service.RegisterInput{
		Email:       input.Body.Email,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	out := &TokenOutput{}
	out.Body.User, out.Body.AccessToken = toUserResponse(result)
	return out, nil
}

func (s *Server) handleMintToken(ctx context.Context, input *MintTokenInput) (*TokenOutput, error) {
	result, err := s.services.Users.MintToken(ctx, input.Body.Email)
	if err != nil {
		return nil, err
	}

	out := &TokenOutput{}
	out.Body.User, out.Body.AccessToken = toUserResponse(result)
	return out, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *CurrentUserInput) (*UserOutput, error) {
	ctx, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	userID, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}}, nil
}
