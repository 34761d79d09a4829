package cache

import (
	"context"
	"errors"

	"tokoshop/internal/models"
)

// CartCache stores carts keyed by their owner.
type CartCache interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Set(ctx context.Context, userID string, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
