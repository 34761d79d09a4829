package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokoshop/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, cloneProduct(p))
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s %w", id, ErrNotFound)
	}
	product = cloneProduct(product)
	return &product, nil
}

// GetMany returns the products found among ids.
func (r *MockProductRepository) GetMany(_ context.Context, ids []string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := r.products[product.ID]; ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicateKey)
	}
	for _, p := range r.products {
		if product.SKU != "" && p.SKU == product.SKU {
			return fmt.Errorf("product with SKU %s: %w", product.SKU, ErrDuplicateKey)
		}
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update modifies an existing product if nobody else updated it first.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s %w", product.ID, ErrNotFound)
	}
	if stored.Version != product.Version {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrConflict)
	}
	product.Version++
	product.CreatedAt = stored.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}
