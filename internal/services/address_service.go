package services

import (
	"context"
	"fmt"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// AddressService manages a user's delivery addresses.
type AddressService struct {
	repo repositories.AddressRepository
}

func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

func (s *AddressService) List(ctx context.Context, userID string) ([]models.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *AddressService) Get(ctx context.Context, id, userID string) (*models.Address, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *AddressService) Create(ctx context.Context, userID string, address *models.Address) error {
	address.ID = ""
	address.UserID = userID
	if err := s.repo.Create(ctx, address); err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// Update replaces an address owned by userID.
func (s *AddressService) Update(ctx context.Context, id, userID string, address *models.Address) error {
	address.ID = id
	address.UserID = userID
	return s.repo.Update(ctx, address)
}

func (s *AddressService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}
