package service

import (
	"context"

	"github.com/quorumapp/quorum-server/internal/auth"
	"github.com/quorumapp/quorum-server/internal/domain"
	"github.com/quorumapp/quorum-server/internal/id"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/store"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// UserService manages accounts and mints access tokens.
type UserService struct {
	store     *store.Store
	logger    *logger.Logger
	validator *validation.Validator
	tokens    *auth.TokenService
}

// NewUserService creates a new user service.
func NewUserService(s *store.Store, log *logger.Logger, v *validation.Validator, tokens *auth.TokenService) *UserService {
	return &UserService{
		store:     s,
		logger:    log,
		validator: v,
		tokens:    tokens,
	}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=64"`
}

// RegisterResult is the outcome of a registration: the account plus a fresh
// access token.
type RegisterResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// Register creates a new account and returns an access token for it. Emails
// are unique case-insensitively.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	user := &domain.User{
		ID:          userID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "userId", user.ID)
	return &RegisterResult{User: user, AccessToken: token}, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// MintToken issues an access token for an existing account looked up by
// email. This is the development identity bootstrap; production deployments
// front this server with a real identity provider.
func (s *UserService) MintToken(ctx context.Context, email string) (*RegisterResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{User: user, AccessToken: token}, nil
}
