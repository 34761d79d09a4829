package repositories

import (
	"context"
	"fmt"
	"sync"

	"tokoshop/internal/models"

	"github.com/google/uuid"
)

// MockAddressRepository is an in-memory implementation of AddressRepository.
type MockAddressRepository struct {
	addresses map[string]models.Address
	mu        sync.RWMutex
}

// NewMockAddressRepository creates a new instance of MockAddressRepository.
func NewMockAddressRepository() *MockAddressRepository {
	return &MockAddressRepository{
		addresses: make(map[string]models.Address),
	}
}

func (r *MockAddressRepository) ListByUser(_ context.Context, userID string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Address, 0)
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MockAddressRepository) GetByID(_ context.Context, id, userID string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("address with ID %s %w", id, ErrNotFound)
	}
	return &a, nil
}

func (r *MockAddressRepository) Create(_ context.Context, address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	r.addresses[address.ID] = *address
	return nil
}

func (r *MockAddressRepository) Update(_ context.Context, address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.addresses[address.ID]
	if !ok || stored.UserID != address.UserID {
		return fmt.Errorf("address with ID %s %w", address.ID, ErrNotFound)
	}
	r.addresses[address.ID] = *address
	return nil
}

func (r *MockAddressRepository) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("address with ID %s %w", id, ErrNotFound)
	}
	delete(r.addresses, id)
	return nil
}
