package repositories

import (
	"context"

	"tokoshop/internal/models"
)

// CategoryRepository stores categories. Names are unique.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	// Rename changes the name of the category called from.
	Rename(ctx context.Context, from, to string) error
	Delete(ctx context.Context, name string) error
}
