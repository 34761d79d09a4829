package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// CategoryService manages categories and the products filed under them.
type CategoryService struct {
	categories repositories.CategoryRepository
	products   repositories.ProductRepository
}

func NewCategoryService(categories repositories.CategoryRepository, products repositories.ProductRepository) *CategoryService {
	return &CategoryService{categories: categories, products: products}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.GetAll(ctx)
}

func (s *CategoryService) Get(ctx context.Context, name string) (*models.Category, error) {
	return s.categories.GetByName(ctx, name)
}

// Create adds a category. Names are trimmed and must be unique.
func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(name)}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	log.Printf("Created category %s", category.Name)
	return category, nil
}

// Rename renames a category and refiles its products under the new name.
func (s *CategoryService) Rename(ctx context.Context, from, to string) (*models.Category, error) {
	to = strings.TrimSpace(to)
	if err := s.categories.Rename(ctx, from, to); err != nil {
		return nil, err
	}
	if from != to {
		filed, err := s.filedUnder(ctx, from)
		if err != nil {
			return nil, err
		}
		for _, p := range filed {
			if err := s.refile(ctx, p.ID, from, to); err != nil {
				return nil, fmt.Errorf("failed to move product %s to category %s: %w", p.ID, to, err)
			}
		}
		log.Printf("Renamed category %s to %s (%d products moved)", from, to, len(filed))
	}
	return s.categories.GetByName(ctx, to)
}

func (s *CategoryService) refile(ctx context.Context, productID, from, to string) error {
	return retryOnConflict("product "+productID, func() error {
		p, err := s.products.GetByID(ctx, productID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		names := make([]string, 0, len(p.CategoryNames))
		for _, n := range p.CategoryNames {
			if n == from {
				n = to
			}
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
		p.CategoryNames = names
		return s.products.Update(ctx, p)
	})
}

// Delete removes an empty category.
func (s *CategoryService) Delete(ctx context.Context, name string) error {
	if _, err := s.categories.GetByName(ctx, name); err != nil {
		return err
	}
	filed, err := s.filedUnder(ctx, name)
	if err != nil {
		return err
	}
	if len(filed) > 0 {
		return fmt.Errorf("%w: %s has %d", ErrCategoryInUse, name, len(filed))
	}
	if err := s.categories.Delete(ctx, name); err != nil {
		return err
	}
	log.Printf("Deleted category %s", name)
	return nil
}

// Products lists the published products filed under the category.
func (s *CategoryService) Products(ctx context.Context, name string) ([]models.Product, error) {
	if _, err := s.categories.GetByName(ctx, name); err != nil {
		return nil, err
	}
	filed, err := s.filedUnder(ctx, name)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(filed, func(p models.Product) bool {
		return p.Status != models.ProductStatusPublished
	}), nil
}

// filedUnder scans the catalog in Go; category names live in a JSON column
// whose query syntax differs between postgres and sqlite.
func (s *CategoryService) filedUnder(ctx context.Context, name string) ([]models.Product, error) {
	all, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p models.Product) bool {
		return !slices.Contains(p.CategoryNames, name)
	}), nil
}
