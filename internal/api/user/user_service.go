package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hassonapp/chatter/internal/api"
)

var _ Service = (*ServiceImpl)(nil)

// Service reads profiles cache-first with the durable store as fallback.
type Service interface {
	GetCurrentUser(ctx context.Context, claims *api.Claims) (*api.UserDocument, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repo
	cache  *Cache
}

func NewServiceImpl(repo Repo, cache *Cache, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache,
	}
}

// GetCurrentUser resolves the profile behind a verified session. The cache is
// authoritative when it answers; a cache miss or a cache fault falls through
// to the durable store, so a flushed cache only costs latency, not
// correctness. A profile whose durable write is still queued is served from
// the cache alone.
func (s *ServiceImpl) GetCurrentUser(ctx context.Context, claims *api.Claims) (*api.UserDocument, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, api.NotAuthorized("Token is invalid. Please login again.")
	}

	doc, err := s.cache.GetUserFromCache(ctx, userID.String())
	if err == nil && doc != nil {
		return doc, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Cache read failed, falling back to durable store",
			slog.String("user_id", userID.String()),
		)
	}

	doc, err = s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}
