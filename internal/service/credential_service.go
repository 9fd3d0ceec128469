package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
)

// Tolerant of the scheme's case, like the consumers this service grew up
// with.
var bearerPattern = regexp.MustCompile(`(?i)^bearer\s+(\S+)`)

type APITokenSource interface {
	FindByToken(ctx context.Context, token string) (*models.Api, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Api, error)
}

type ProfileTokenSource interface {
	FindByToken(ctx context.Context, token string) (*models.Profile, error)
}

// CredentialService maps credential material to a Principal. Tenant-token
// lookups may be served from a short-lived redis cache; bearer lookups
// always hit the store so profile deletion takes effect immediately.
type CredentialService struct {
	apis     APITokenSource
	profiles ProfileTokenSource
	cache    *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewCredentialService(apis APITokenSource, profiles ProfileTokenSource, cache *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *CredentialService {
	return &CredentialService{
		apis:     apis,
		profiles: profiles,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// ResolveAPIToken resolves an Api-Token header value to a tenant
// principal.
func (s *CredentialService) ResolveAPIToken(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, ErrUnauthorized
	}

	if api, ok := s.cachedAPI(ctx, token); ok {
		return models.Principal{API: api}, nil
	}

	api, err := s.apis.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrAPINotFound) {
			return models.Principal{}, ErrUnauthorized
		}
		return models.Principal{}, err
	}

	s.cacheAPI(ctx, token, api)
	return models.Principal{API: api}, nil
}

// ResolveBearer resolves an Authorization header value to a profile
// principal with its owning tenant eager-loaded.
func (s *CredentialService) ResolveBearer(ctx context.Context, authorization string) (models.Principal, error) {
	m := bearerPattern.FindStringSubmatch(authorization)
	if m == nil {
		return models.Principal{}, ErrUnauthorized
	}

	profile, err := s.profiles.FindByToken(ctx, m[1])
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return models.Principal{}, ErrUnauthorized
		}
		return models.Principal{}, err
	}

	api, err := s.apis.FindByID(ctx, profile.APIID)
	if err != nil {
		if errors.Is(err, repository.ErrAPINotFound) {
			return models.Principal{}, ErrUnauthorized
		}
		return models.Principal{}, err
	}

	return models.Principal{API: api, Profile: profile}, nil
}

const apiTokenCachePrefix = "auth:apitoken:"

func (s *CredentialService) cachedAPI(ctx context.Context, token string) (*models.Api, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, apiTokenCachePrefix+token).Bytes()
	if err != nil {
		return nil, false
	}
	var api models.Api
	if err := json.Unmarshal(raw, &api); err != nil {
		return nil, false
	}
	// Token is excluded from the JSON form; restore it from the key.
	api.Token = token
	return &api, true
}

func (s *CredentialService) cacheAPI(ctx context.Context, token string, api *models.Api) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(api)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, apiTokenCachePrefix+token, raw, s.cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("api token cache write failed")
	}
}
