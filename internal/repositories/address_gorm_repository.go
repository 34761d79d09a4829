package repositories

import (
	"context"
	"errors"
	"fmt"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

func (r *GORMAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (r *GORMAddressRepository) GetByID(ctx context.Context, id, userID string) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}

func (r *GORMAddressRepository) Create(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

func (r *GORMAddressRepository) Update(ctx context.Context, address *models.Address) error {
	res := r.db.WithContext(ctx).Model(address).
		Where("user_id = ?", address.UserID).
		Select("*").Updates(address)
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %s %w", address.ID, ErrNotFound)
	}
	return nil
}

func (r *GORMAddressRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Delete(&models.Address{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address with ID %s %w", id, ErrNotFound)
	}
	return nil
}
