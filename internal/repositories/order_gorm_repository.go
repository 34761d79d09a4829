package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokoshop/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
// Lines and payments are stored as JSON columns of the order row, so every
// order write is a single-row, atomic update.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) find(ctx context.Context, query func(*gorm.DB) *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	if err := query(r.db.WithContext(ctx)).Order("created_at").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) })
}

func (r *GORMOrderRepository) ListByUserAndStatus(ctx context.Context, userID string, status models.OrderStatus) ([]models.Order, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND status = ?", userID, status)
	})
}

func (r *GORMOrderRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Order, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND expire_date IS NOT NULL AND expire_date <= ?", models.OrderStatusPendingPayment, now.UTC())
	})
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create inserts the order. A second insert with the same ID yields ErrDuplicateKey.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		return fmt.Errorf("order ID is required")
	}
	order.Version = 0
	utcExpiry(order)
	err := r.db.WithContext(ctx).Create(order).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrDuplicateKey)
	}
	// Not every driver translates constraint errors; fall back to a lookup.
	if found, lookupErr := exists(r.db.WithContext(ctx), &models.Order{}, order.ID); lookupErr == nil && found {
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrDuplicateKey)
	}
	return fmt.Errorf("failed to create order: %w", err)
}

// Update writes the whole order if the stored version still matches.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	expected := order.Version
	order.Version = expected + 1
	utcExpiry(order)
	res := r.db.WithContext(ctx).Model(order).
		Where("version = ?", expected).
		Select("*").Omit("created_at").
		Updates(order)
	if res.Error != nil {
		order.Version = expected
		return fmt.Errorf("failed to update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		order.Version = expected
		found, err := exists(r.db.WithContext(ctx), &models.Order{}, order.ID)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if !found {
			return fmt.Errorf("order with ID %s %w", order.ID, ErrNotFound)
		}
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrConflict)
	}
	return nil
}

func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s %w", id, ErrNotFound)
	}
	return nil
}

// utcExpiry stores expire dates in UTC; SQLite compares timestamps as text.
func utcExpiry(order *models.Order) {
	if order.ExpireDate != nil {
		t := order.ExpireDate.UTC()
		order.ExpireDate = &t
	}
}
