package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	// GetByID returns the cart only if it is owned by userID.
	GetByID(ctx context.Context, id, userID string) (*models.Cart, error)
	// Save upserts cart by id, assigning an id and timestamps as needed.
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cart *models.Cart) error
}
