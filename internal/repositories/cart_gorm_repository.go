package repositories

import (
	"context"
	"errors"
	"fmt"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %s %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (r *GORMCartRepository) GetByID(ctx context.Context, id, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// Save upserts the cart. Save will update all fields, including zero values.
func (r *GORMCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Save(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *GORMCartRepository) Delete(ctx context.Context, cart *models.Cart) error {
	if err := r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cart.ID).Error; err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
