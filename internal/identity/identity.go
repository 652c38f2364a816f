// Package identity carries the authenticated caller through a request's
// context. Handlers attach it after token verification; services require it
// before any mutation.
package identity

import (
	"context"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// FromContext extracts the authenticated user ID, if any.
func FromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ctxKey{}).(string)
	return userID, ok && userID != ""
}

// Require extracts the authenticated user ID or fails with an
// authentication error.
func Require(ctx context.Context) (string, error) {
	userID, ok := FromContext(ctx)
	if !ok {
		return "", apperrors.Unauthenticated("authentication required")
	}
	return userID, nil
}
