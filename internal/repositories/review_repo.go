package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Delete(ctx context.Context, id string) error
}
