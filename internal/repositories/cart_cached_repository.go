package repositories

import (
	"context"
	"errors"
	"log"
	"time"

	"tokoshop/internal/cache"
	"tokoshop/internal/models"

	"golang.org/x/sync/singleflight"
)

// CachedCartRepository is a read-through cache in front of another CartRepository.
// Writes go to the backing store first and then invalidate the owner's entry.
type CachedCartRepository struct {
	next  CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // collapses concurrent misses for the same user
}

func NewCachedCartRepository(next CartRepository, c cache.CartCache) *CachedCartRepository {
	return &CachedCartRepository{next: next, cache: c}
}

func (r *CachedCartRepository) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	v, err, _ := r.sfg.Do(userID, func() (interface{}, error) {
		cart, err := r.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err)
		}

		cart, err = r.next.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, userID, cart); err != nil {
			log.Printf("cart cache set error: %v", err)
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight shares the pointer between callers.
	cart := cloneCart(*v.(*models.Cart))
	return &cart, nil
}

func (r *CachedCartRepository) GetByID(ctx context.Context, id, userID string) (*models.Cart, error) {
	return r.next.GetByID(ctx, id, userID)
}

func (r *CachedCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if err := r.next.Save(ctx, cart); err != nil {
		return err
	}
	r.invalidate(cart.UserID)
	return nil
}

func (r *CachedCartRepository) Delete(ctx context.Context, cart *models.Cart) error {
	if err := r.next.Delete(ctx, cart); err != nil {
		return err
	}
	r.invalidate(cart.UserID)
	return nil
}

func (r *CachedCartRepository) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}
