package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// AddressRepository defines the interface for address data access.
// Every lookup is scoped to the owning user.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	GetByID(ctx context.Context, id, userID string) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id, userID string) error
}
