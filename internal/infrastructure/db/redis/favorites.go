package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// FavoritesStore keeps each user's favorited item ids in a Redis set.
// Key format: fav:<user_id>
type FavoritesStore struct {
	client *redis.Client
}

// NewFavoritesStore creates a FavoritesStore wrapping the given Redis client.
func NewFavoritesStore(client *redis.Client) *FavoritesStore {
	return &FavoritesStore{client: client}
}

// Toggle flips itemID's membership in the user's set and reports whether the
// item is favorited afterwards.
func (f *FavoritesStore) Toggle(ctx context.Context, userID, itemID string) (bool, error) {
	key := f.key(userID)

	member, err := f.client.SIsMember(ctx, key, itemID).Result()
	if err != nil {
		return false, fmt.Errorf("favorites check: %w", err)
	}
	if member {
		if err := f.client.SRem(ctx, key, itemID).Err(); err != nil {
			return false, fmt.Errorf("favorites remove: %w", err)
		}
		return false, nil
	}
	if err := f.client.SAdd(ctx, key, itemID).Err(); err != nil {
		return false, fmt.Errorf("favorites add: %w", err)
	}
	return true, nil
}

// List returns the user's favorited item ids.
func (f *FavoritesStore) List(ctx context.Context, userID string) ([]string, error) {
	ids, err := f.client.SMembers(ctx, f.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("favorites list: %w", err)
	}
	return ids, nil
}

func (f *FavoritesStore) key(userID string) string {
	return "fav:" + userID
}
