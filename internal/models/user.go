package models

import (
	"slices"
	"time"
)

// Role is a permission set granted to a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a user of the store.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FirstName    string    `json:"first_name" validate:"required,min=1,max=100"`
	LastName     string    `json:"last_name,omitempty" validate:"omitempty,max=100"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	Roles        []Role    `json:"roles" gorm:"serializer:json"`
	// TokenVersion is stamped into issued tokens; bumping it revokes them.
	TokenVersion int64     `json:"-" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }
