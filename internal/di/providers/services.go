package providers

import (
	"github.com/samber/do/v2"

	"github.com/quorumapp/quorum-server/internal/auth"
	"github.com/quorumapp/quorum-server/internal/config"
	"github.com/quorumapp/quorum-server/internal/images"
	"github.com/quorumapp/quorum-server/internal/logger"
	"github.com/quorumapp/quorum-server/internal/ratelimit"
	"github.com/quorumapp/quorum-server/internal/service"
	"github.com/quorumapp/quorum-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideImageResolver provides the image URL resolver.
func ProvideImageResolver(i do.Injector) (images.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return images.NewURLResolver(cfg.Server.PublicBaseURL), nil
}

// VoteLimiterHandle wraps the vote rate limiter with shutdown capability.
type VoteLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *VoteLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideVoteLimiter provides the per-user vote rate limiter.
func ProvideVoteLimiter(i do.Injector) (*VoteLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	limiter := ratelimit.New(cfg.RateLimit.VotesPerSecond, cfg.RateLimit.VoteBurst)
	return &VoteLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewTagService(storeHandle.Store, log, validator), nil
}

// ProvideQuestionService provides the question service.
func ProvideQuestionService(i do.Injector) (*service.QuestionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	validator := do.MustInvoke[*validation.Validator](i)
	resolver := do.MustInvoke[images.Resolver](i)

	return service.NewQuestionService(storeHandle.Store, log, validator, resolver, cfg.Pagination), nil
}

// ProvideAnswerService provides the answer service.
func ProvideAnswerService(i do.Injector) (*service.AnswerService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	validator := do.MustInvoke[*validation.Validator](i)
	resolver := do.MustInvoke[images.Resolver](i)

	return service.NewAnswerService(storeHandle.Store, log, validator, resolver, cfg.Pagination), nil
}

// ProvideVoteService provides the vote service.
func ProvideVoteService(i do.Injector) (*service.VoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoteService(storeHandle.Store, log), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	validator := do.MustInvoke[*validation.Validator](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	return service.NewUserService(storeHandle.Store, log, validator, tokens), nil
}

// ProvideServices bundles the business services for the API layer.
func ProvideServices(i do.Injector) (*service.Services, error) {
	return &service.Services{
		Tags:      do.MustInvoke[*service.TagService](i),
		Questions: do.MustInvoke[*service.QuestionService](i),
		Answers:   do.MustInvoke[*service.AnswerService](i),
		Votes:     do.MustInvoke[*service.VoteService](i),
		Users:     do.MustInvoke[*service.UserService](i),
	}, nil
}
