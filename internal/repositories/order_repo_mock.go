package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tokoshop/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

func (r *MockOrderRepository) filter(keep func(o *models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if keep(&order) {
			orderList = append(orderList, cloneOrder(order))
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.Before(orderList[j].CreatedAt)
	})
	return orderList
}

// GetAll returns all orders, oldest first.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	return r.filter(func(*models.Order) bool { return true }), nil
}

// ListByUser returns the orders placed by userID.
func (r *MockOrderRepository) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.UserID == userID }), nil
}

// ListByUserAndStatus returns userID's orders currently in status.
func (r *MockOrderRepository) ListByUserAndStatus(_ context.Context, userID string, status models.OrderStatus) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.UserID == userID && o.Status == status }), nil
}

// ListExpired returns unpaid orders past their expire date.
func (r *MockOrderRepository) ListExpired(_ context.Context, now time.Time) ([]models.Order, error) {
	return r.filter(func(o *models.Order) bool { return o.Expired(now) }), nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s %w", id, ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// Create adds a new order. The ID must be set by the caller.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		return fmt.Errorf("order ID is required")
	}
	if _, ok := r.orders[order.ID]; ok {
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrDuplicateKey)
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.Version = 0
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// Update replaces an order if its version matches the stored one.
func (r *MockOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order with ID %s %w", order.ID, ErrNotFound)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("order with ID %s: %w", order.ID, ErrConflict)
	}
	order.Version++
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// Delete removes an order by its ID.
func (r *MockOrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order with ID %s %w", id, ErrNotFound)
	}
	delete(r.orders, id)
	return nil
}
