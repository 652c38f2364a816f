package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumapp/quorum-server/internal/auth"
	"github.com/quorumapp/quorum-server/internal/config"
	"github.com/quorumapp/quorum-server/internal/identity"
	"github.com/quorumapp/quorum-server/internal/images"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/store"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// testEnv bundles the services over one temp-dir store.
type testEnv struct {
	store     *store.Store
	tags      *TagService
	questions *QuestionService
	answers   *AnswerService
	votes     *VoteService
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	s, err := store.New(t.TempDir(), log.Logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	v := validation.New()
	resolver := images.NewURLResolver("http://localhost:8080")
	pagination := config.PaginationConfig{DefaultLimit: 20, MaxLimit: 100, DefaultSortOrder: "desc"}

	keyHex, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:     s,
		tags:      NewTagService(s, log, v),
		questions: NewQuestionService(s, log, v, resolver, pagination),
		answers:   NewAnswerService(s, log, v, resolver, pagination),
		votes:     NewVoteService(s, log),
		users:     NewUserService(s, log, v, tokens),
	}
}

// asUser returns a context authenticated as userID.
func asUser(userID string) context.Context {
	return identity.WithUser(context.Background(), userID)
}
