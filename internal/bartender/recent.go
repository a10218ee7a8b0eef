package bartender

import (
	"context"
	"errors"

	"barkeep/internal/cache"
)

// RecentStore persists each owner's recently viewed recipe ids,
// most recent first.
type RecentStore interface {
	Load(ctx context.Context, owner string) ([]string, error)
	Save(ctx context.Context, owner string, ids []string) error
}

const recentPrefix = "bartender/recent/"

// AnonymousOwner keys the recent list of signed out visitors.
const AnonymousOwner = "anonymous"

type CacheRecentStore struct {
	cache cache.Cache
}

var _ RecentStore = (*CacheRecentStore)(nil)

func NewCacheRecentStore(c cache.Cache) *CacheRecentStore {
	return &CacheRecentStore{cache: c}
}

func (s *CacheRecentStore) Load(ctx context.Context, owner string) ([]string, error) {
	ids, err := cache.GetJSON[[]string](ctx, s.cache, recentPrefix+ownerKey(owner))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return capRecent(ids), nil
}

func (s *CacheRecentStore) Save(ctx context.Context, owner string, ids []string) error {
	return cache.PutJSON(ctx, s.cache, recentPrefix+ownerKey(owner), capRecent(ids), cache.Unconditional())
}

func ownerKey(owner string) string {
	if owner == "" {
		return AnonymousOwner
	}
	return owner
}
