package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetMany returns the products that exist among ids; missing ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes product only if its stored Version still equals product.Version,
	// then increments the version. It returns ErrConflict otherwise.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
