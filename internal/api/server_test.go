package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumapp/quorum-server/internal/auth"
	"github.com/quorumapp/quorum-server/internal/config"
	"github.com/quorumapp/quorum-server/internal/images"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/ratelimit"
	"github.com/quorumapp/quorum-server/internal/service"
	"github.com/quorumapp/quorum-server/internal/store"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()

	st, err := store.New(tmpDir+"/db", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name: "Quorum Test",
			Port: "0",
		},
		Auth: config.AuthConfig{
			AccessTokenDuration: 15 * time.Minute,
		},
		Pagination: config.PaginationConfig{
			DefaultLimit:     20,
			MaxLimit:         100,
			DefaultSortOrder: "desc",
		},
		RateLimit: config.RateLimitConfig{
			VotesPerSecond: 100,
			VoteBurst:      100,
		},
	}

	keyHex, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration)
	require.NoError(t, err)

	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	validator := validation.New()
	resolver := images.NewURLResolver("http://localhost:8080")

	services := &service.Services{
		Tags:      service.NewTagService(st, log, validator),
		Questions: service.NewQuestionService(st, log, validator, resolver, cfg.Pagination),
		Answers:   service.NewAnswerService(st, log, validator, resolver, cfg.Pagination),
		Votes:     service.NewVoteService(st, log),
		Users:     service.NewUserService(st, log, validator, tokens),
	}

	limiter := ratelimit.New(cfg.RateLimit.VotesPerSecond, cfg.RateLimit.VoteBurst)
	t.Cleanup(limiter.Stop)

	s := NewServer(services, tokens, limiter, cfg, log)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerUser creates an account and returns its access token and user ID.
func (ts *testServer) registerUser(t *testing.T, email string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":       email,
		"displayName": "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var body struct {
		User        UserResponse `json:"user"`
		AccessToken string       `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)

	return body.AccessToken, body.User.ID
}

func (ts *testServer) createTag(t *testing.T, token, name string) TagResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, "create tag failed: %s", resp.Body.String())

	var tag TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	return tag
}

// === Tests ===

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "healthy")
}

func TestCreateTag_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": "Go"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateAndFetchTag(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "tags@test.com")

	tag := ts.createTag(t, token, "Distributed Systems")
	assert.Equal(t, "distributed-systems", tag.Slug)

	resp := ts.api.Get("/api/v1/tags/slug/distributed-systems")
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, tag.ID, fetched.ID)
	assert.Equal(t, "Distributed Systems", fetched.Name)
}

func TestCreateTag_DuplicateNameConflicts(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "dup@test.com")

	ts.createTag(t, token, "Golang")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "golang"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestQuestionLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "asker@test.com")

	tag := ts.createTag(t, token, "Go")

	resp := ts.api.Post("/api/v1/questions",
		"Authorization: Bearer "+token,
		map[string]any{
			"title":   "How do goroutines get scheduled?",
			"content": "Looking for an overview of the runtime scheduler.",
			"tagIds":  []string{tag.ID},
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created service.QuestionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, userID, created.AuthorID)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "go", created.Tags[0].Slug)

	// The tag's question count reflects the new question.
	tagResp := ts.api.Get("/api/v1/tags/" + tag.ID)
	require.Equal(t, http.StatusOK, tagResp.Code)
	var updatedTag TagResponse
	require.NoError(t, json.Unmarshal(tagResp.Body.Bytes(), &updatedTag))
	assert.Equal(t, 1, updatedTag.QuestionCount)

	// Listing by tag finds it.
	listResp := ts.api.Get("/api/v1/questions?tagId=" + tag.ID)
	require.Equal(t, http.StatusOK, listResp.Code)
	var page struct {
		Items []*service.QuestionView `json:"items"`
		PageMeta
	}
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.TotalItems)

	// Non-author cannot delete.
	otherToken, _ := ts.registerUser(t, "other@test.com")
	delResp := ts.api.Delete("/api/v1/questions/"+created.ID,
		"Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, delResp.Code)

	delResp = ts.api.Delete("/api/v1/questions/"+created.ID,
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, delResp.Code)
}

func TestVoteFlow(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "author@test.com")
	voterToken, _ := ts.registerUser(t, "voter@test.com")

	resp := ts.api.Post("/api/v1/questions",
		"Authorization: Bearer "+token,
		map[string]any{
			"title":   "Why is my channel deadlocking?",
			"content": "Minimal repro attached.",
		})
	require.Equal(t, http.StatusOK, resp.Code)
	var question service.QuestionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &question))

	voteResp := ts.api.Post("/api/v1/votes",
		"Authorization: Bearer "+voterToken,
		map[string]any{
			"targetId":   question.ID,
			"targetType": "Question",
			"voteType":   "upvote",
		})
	require.Equal(t, http.StatusOK, voteResp.Code, voteResp.Body.String())

	var outcome VoteResponseBody
	require.NoError(t, json.Unmarshal(voteResp.Body.Bytes(), &outcome))
	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Votes)
	assert.Equal(t, 1, outcome.Votes.Upvotes)

	// Anonymous reads see the aggregate.
	countResp := ts.api.Get("/api/v1/votes/count?targetId=" + question.ID + "&targetType=Question")
	require.Equal(t, http.StatusOK, countResp.Code)
	var count VoteCountResponse
	require.NoError(t, json.Unmarshal(countResp.Body.Bytes(), &count))
	assert.Equal(t, 1, count.Upvotes)
	assert.Equal(t, 0, count.Downvotes)

	// Cancelling removes the vote.
	cancelResp := ts.api.Delete("/api/v1/votes?targetId="+question.ID+"&targetType=Question",
		"Authorization: Bearer "+voterToken)
	require.Equal(t, http.StatusOK, cancelResp.Code)
	require.NoError(t, json.Unmarshal(cancelResp.Body.Bytes(), &outcome))
	require.NotNil(t, outcome.Votes)
	assert.Equal(t, 0, outcome.Votes.Upvotes)
}

func TestVote_RateLimited(t *testing.T) {
	ts := setupTestServer(t)

	// Swap in a tight limiter so the third vote in a burst is rejected.
	ts.voteLimiter.Stop()
	ts.voteLimiter = ratelimit.New(0.1, 2)
	t.Cleanup(ts.voteLimiter.Stop)

	token, _ := ts.registerUser(t, "spammer@test.com")

	resp := ts.api.Post("/api/v1/questions",
		"Authorization: Bearer "+token,
		map[string]any{"title": "Rate limit me", "content": "body"})
	require.Equal(t, http.StatusOK, resp.Code)
	var question service.QuestionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &question))

	vote := func() int {
		r := ts.api.Post("/api/v1/votes",
			"Authorization: Bearer "+token,
			map[string]any{
				"targetId":   question.ID,
				"targetType": "Question",
				"voteType":   "upvote",
			})
		return r.Code
	}

	assert.Equal(t, http.StatusOK, vote())
	assert.Equal(t, http.StatusOK, vote())
	assert.Equal(t, http.StatusTooManyRequests, vote())
}

func TestGetQuestion_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/questions/question_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_FOUND")
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "me@test.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var user UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &user))
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "me@test.com", user.Email)
}
