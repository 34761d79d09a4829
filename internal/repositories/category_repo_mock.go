package repositories

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"tokoshop/internal/models"

	"github.com/google/uuid"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]models.Category // keyed by name
	mu         sync.RWMutex
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]models.Category),
	}
}

// GetAll returns every category sorted by name.
func (r *MockCategoryRepository) GetAll(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *MockCategoryRepository) GetByName(_ context.Context, name string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[name]
	if !ok {
		return nil, fmt.Errorf("category %s %w", name, ErrNotFound)
	}
	return &c, nil
}

func (r *MockCategoryRepository) Create(_ context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.Name]; ok {
		return fmt.Errorf("category %s: %w", category.Name, ErrDuplicateKey)
	}
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()
	r.categories[category.Name] = *category
	return nil
}

func (r *MockCategoryRepository) Rename(_ context.Context, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[from]
	if !ok {
		return fmt.Errorf("category %s %w", from, ErrNotFound)
	}
	if from == to {
		return nil
	}
	if _, taken := r.categories[to]; taken {
		return fmt.Errorf("category %s: %w", to, ErrDuplicateKey)
	}
	delete(r.categories, from)
	c.Name = to
	r.categories[to] = c
	return nil
}

func (r *MockCategoryRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[name]; !ok {
		return fmt.Errorf("category %s %w", name, ErrNotFound)
	}
	delete(r.categories, name)
	return nil
}
