package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quorumapp/quorum-server/internal/errors"
)

func TestRequire(t *testing.T) {
	ctx := WithUser(context.Background(), "user-abc")

	userID, err := Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", userID)

	_, err = Require(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	// An empty user ID is not an identity.
	_, err = Require(WithUser(context.Background(), ""))
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
