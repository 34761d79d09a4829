package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the data needed to open a customer account.
type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo          repositories.UserRepository
	jwtSecret         []byte
	tokenDurat        time.Duration // Duration for which JWT is valid
	allowRegistration bool
}

// NewAuthService creates a new AuthService. A zero tokenTTL defaults to 24 hours.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, allowRegistration bool) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:          userRepo,
		jwtSecret:         []byte(jwtSecret),
		tokenDurat:        tokenTTL,
		allowRegistration: allowRegistration,
	}
}

// HashPassword returns the bcrypt hash stored for password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// RegisterUser creates a customer account.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !s.allowRegistration {
		return nil, ErrRegistrationClosed
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hashed,
		Roles:        []models.Role{models.RoleCustomer},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	log.Printf("Registered user %s", user.ID)
	return user, nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Do not reveal whether the email exists.
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"ver":     user.TokenVersion,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Authenticate resolves a token to the principal it was issued to. Tokens
// whose version no longer matches the user's TokenVersion are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (models.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Principal{}, err
	}
	userID, _ := claims["user_id"].(string)
	// Numeric claims decode as float64.
	version, ok := claims["ver"].(float64)
	if userID == "" || !ok {
		return models.Principal{}, fmt.Errorf("invalid token: missing claims")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if int64(version) != user.TokenVersion {
		return models.Principal{}, fmt.Errorf("invalid token: session expired")
	}
	return models.Principal{ID: user.ID, Roles: user.Roles}, nil
}

// Me returns the account of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// PasswordChange is the body of a password change request.
type PasswordChange struct {
	Old string `json:"old" validate:"required"`
	New string `json:"new" validate:"required,min=8,max=72"`
}

// ChangePassword replaces the user's password after checking the old one.
// Tokens issued before the change stop working.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in PasswordChange) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Old)); err != nil {
		return ErrWrongPassword
	}
	hashed, err := HashPassword(in.New)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.TokenVersion++
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	log.Printf("User %s changed their password", user.ID)
	return nil
}

// ChangeEmail moves the account to a new email address.
func (s *AuthService) ChangeEmail(ctx context.Context, userID, email string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Email = strings.ToLower(strings.TrimSpace(email))
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to change email: %w", err)
	}
	return nil
}

// ChangeName sets the account's display name. An empty last name clears it.
func (s *AuthService) ChangeName(ctx context.Context, userID, first, last string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.FirstName, user.LastName = first, last
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change name: %w", err)
	}
	return nil
}
