package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tokoshop/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultCartTTL is used when NewRedisCache is given a non-positive TTL.
const DefaultCartTTL = 15 * time.Minute

const keyPrefix = "tokoshop:cart:"

// RedisCache keeps each user's cart as a JSON document in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache caches carts for ttl, plus up to a fifth of ttl of jitter so
// carts written together do not all expire together.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns ErrCacheMiss when the user has no cached cart.
func (r *RedisCache) Get(ctx context.Context, userID string) (*models.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("failed to read cached cart of user %s: %w", userID, err)
	}

	cart := new(models.Cart)
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("cached cart of user %s is corrupt: %w", userID, err)
	}
	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *models.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", cart.ID, err)
	}
	if err := r.client.Set(ctx, cartKey(userID), raw, r.expiry()).Err(); err != nil {
		return fmt.Errorf("failed to cache cart of user %s: %w", userID, err)
	}
	return nil
}

// Delete is a no-op for a user with nothing cached.
func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to evict cart of user %s: %w", userID, err)
	}
	return nil
}

func (r *RedisCache) expiry() time.Duration {
	return r.ttl + time.Duration(rand.Int63n(int64(r.ttl/5+1)))
}

func cartKey(userID string) string {
	return keyPrefix + userID
}
