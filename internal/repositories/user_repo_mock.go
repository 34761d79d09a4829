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

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user; emails are unique case-insensitively.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicateKey)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s %w", email, ErrNotFound)
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s %w", id, ErrNotFound)
	}
	u = cloneUser(u)
	return &u, nil
}

// GetAll returns every user, oldest first.
func (r *MockUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, cloneUser(u))
	}
	slices.SortFunc(users, func(a, b models.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return users, nil
}

// Update replaces a stored user. The email must stay unique.
func (r *MockUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s %w", user.ID, ErrNotFound)
	}
	for id, u := range r.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicateKey)
		}
	}
	user.CreatedAt = old.CreatedAt
	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// Delete removes a user by ID.
func (r *MockUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %s %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}
