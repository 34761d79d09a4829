package repositories

import (
	"context"
	"time"

	"tokoshop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListByUserAndStatus(ctx context.Context, userID string, status models.OrderStatus) ([]models.Order, error)
	// ListExpired returns pending_payment orders whose expire date is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create inserts a new order and returns ErrDuplicateKey if the id is taken.
	Create(ctx context.Context, order *models.Order) error
	// Update is a version-conditional write, see ProductRepository.Update.
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
}
