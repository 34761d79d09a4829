package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// Catalog returns point-in-time product data for checkout. Ids with no
// product are absent from the result.
type Catalog interface {
	Snapshot(ctx context.Context, ids []string) (map[string]models.ProductSnapshot, error)
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewProductService creates a new ProductService. Products may only be filed
// under categories known to categories.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
	}
}

// checkCategories rejects names with no category and drops duplicates.
func (s *ProductService) checkCategories(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return names, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if slices.Contains(out, name) {
			continue
		}
		if _, err := s.categories.GetByName(ctx, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
			}
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product. New products start as drafts unless
// a status is given.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	names, err := s.checkCategories(ctx, product.CategoryNames)
	if err != nil {
		return err
	}
	product.CategoryNames = names
	// Rating and reviews are owned by the review gate.
	product.Rating = models.ProductRating{}
	product.ReviewIDs = nil
	if err := s.repo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct replaces the editable catalog fields of a product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *models.Product) (*models.Product, error) {
	names, err := s.checkCategories(ctx, input.CategoryNames)
	if err != nil {
		return nil, err
	}
	var updated *models.Product
	err = retryOnConflict("product "+id, func() error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.SKU = input.SKU
		current.Name = input.Name
		current.DescriptionHTML = input.DescriptionHTML
		current.ThumbnailURL = input.ThumbnailURL
		current.MediaURL = input.MediaURL
		current.CategoryNames = names
		current.Price = input.Price
		current.Tags = input.Tags
		current.Stock = input.Stock
		if input.Status != "" {
			current.Status = input.Status
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Snapshot implements Catalog.
func (s *ProductService) Snapshot(ctx context.Context, ids []string) (map[string]models.ProductSnapshot, error) {
	products, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog snapshot: %w", err)
	}
	snap := make(map[string]models.ProductSnapshot, len(products))
	for i := range products {
		snap[products[i].ID] = products[i].Snapshot()
	}
	return snap, nil
}
