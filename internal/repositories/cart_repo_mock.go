package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokoshop/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]models.Cart // keyed by cart ID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// GetByUser returns the cart owned by userID.
func (r *MockCartRepository) GetByUser(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cart := range r.carts {
		if cart.UserID == userID {
			cart = cloneCart(cart)
			return &cart, nil
		}
	}
	return nil, fmt.Errorf("cart for user %s %w", userID, ErrNotFound)
}

// GetByID returns the cart with id if it belongs to userID.
func (r *MockCartRepository) GetByID(_ context.Context, id, userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok || cart.UserID != userID {
		return nil, fmt.Errorf("cart with ID %s %w", id, ErrNotFound)
	}
	cart = cloneCart(cart)
	return &cart, nil
}

// Save upserts a cart; a user may own only one.
func (r *MockCartRepository) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for id, other := range r.carts {
		if id != cart.ID && other.UserID == cart.UserID {
			return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrDuplicateKey)
		}
	}
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	r.carts[cart.ID] = cloneCart(*cart)
	return nil
}

// Delete removes a cart. Deleting a missing cart is not an error.
func (r *MockCartRepository) Delete(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, cart.ID)
	return nil
}
