// Package cache provides a read-through TTL cache for profile lookups,
// keeping repeated interest reads off the store between evaluations.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/model"
)

var _ model.ProfileStore = (*ProfileCache)(nil)

// ProfileCache wraps a ProfileStore with a freecache layer. Profiles are
// eventually consistent inputs, so serving a value up to TTL old is
// acceptable. Upserts write through and invalidate.
type ProfileCache struct {
	source model.ProfileStore
	cache  *freecache.Cache
	ttl    int
}

// NewProfileCache creates a cache of sizeMB megabytes in front of source.
func NewProfileCache(source model.ProfileStore, sizeMB int, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		source: source,
		cache:  freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:    max(int(ttl.Seconds()), 1),
	}
}

func (c *ProfileCache) GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	key := id[:]

	if raw, err := c.cache.Get(key); err == nil {
		var profile model.Profile
		if err := json.Unmarshal(raw, &profile); err == nil {
			return profile, nil
		}
		// Undecodable entry: drop it and fall through to the source.
		c.cache.Del(key)
	}

	profile, err := c.source.GetByID(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}

	if raw, err := json.Marshal(profile); err == nil {
		_ = c.cache.Set(key, raw, c.ttl)
	}

	return profile, nil
}

func (c *ProfileCache) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	saved, err := c.source.Upsert(ctx, profile)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to upsert profile through cache: %w", err)
	}

	c.cache.Del(saved.UserID[:])

	return saved, nil
}
