package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

// UserUpdate carries the fields an administrator may change on an account.
// Nil fields are left alone; an empty LastName or ThumbnailURL clears it.
type UserUpdate struct {
	FirstName    *string       `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName     *string       `json:"last_name" validate:"omitempty,max=100"`
	ThumbnailURL *string       `json:"thumbnail_url" validate:"omitempty,url"`
	Email        *string       `json:"email" validate:"omitempty,email"`
	Password     *string       `json:"password" validate:"omitempty,min=8,max=72"`
	Roles        []models.Role `json:"roles" validate:"omitempty,min=1,dive,oneof=customer admin"`
}

// UserService is the administrative view of user accounts.
type UserService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// List returns every account, or only the one matching email when given.
func (s *UserService) List(ctx context.Context, email string) ([]models.User, error) {
	if email == "" {
		return s.users.GetAll(ctx)
	}
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return []models.User{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.User{*user}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies in to the account. A new password revokes the account's
// outstanding tokens.
func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.ThumbnailURL != nil {
		user.ThumbnailURL = *in.ThumbnailURL
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Roles != nil {
		user.Roles = in.Roles
	}
	if in.Password != nil {
		hashed, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
		user.TokenVersion++
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	log.Printf("Updated user %s", user.ID)
	return user, nil
}

// Delete removes an account. Orders and reviews it left behind are kept.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted user %s", id)
	return nil
}
