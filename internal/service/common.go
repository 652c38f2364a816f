package service

import (
	"context"
	"time"

	"github.com/quorumapp/quorum-server/internal/identity"
)

// identityRequire extracts the authenticated caller or fails with an
// authentication error.
func identityRequire(ctx context.Context) (string, error) {
	return identity.Require(ctx)
}

// nowUTC is the single clock for entity timestamps.
func nowUTC() time.Time {
	return time.Now().UTC()
}
