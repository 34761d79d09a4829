package repositories

import (
	"context"
	"errors"
	"fmt"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

func (r *GORMCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (r *GORMCategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category %s: %w", name, err)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("category %s: %w", category.Name, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *GORMCategoryRepository) Rename(ctx context.Context, from, to string) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", from).Update("name", to)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("category %s: %w", to, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to rename category %s: %w", from, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %s %w", from, ErrNotFound)
	}
	return nil
}

func (r *GORMCategoryRepository) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "name = ?", name)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %s %w", name, ErrNotFound)
	}
	return nil
}
