package services

import (
	"errors"
	"log"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

var (
	// ErrNotFound means the referenced resource is absent or not owned by the caller.
	ErrNotFound = repositories.ErrNotFound
	// ErrConflict means a status write kept losing races after every retry.
	ErrConflict = repositories.ErrConflict
	// ErrInvalidTransition means the requested status is not reachable from the current one.
	ErrInvalidTransition = models.ErrInvalidTransition

	ErrProductUnavailable    = errors.New("product unavailable")
	ErrOrderAlreadyProcessed = errors.New("order already processed")
	ErrPaymentMismatch       = errors.New("payment gateway mismatch")
	ErrInvalidQuantity       = errors.New("quantity must be between 1 and 100")
	ErrForbidden             = errors.New("forbidden")
	ErrNotQualified          = errors.New("not qualified to review this product")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailTaken            = errors.New("email already registered")
	ErrRegistrationClosed    = errors.New("registration is disabled")
	ErrWrongPassword         = errors.New("old password is incorrect")
	ErrUnknownCategory       = errors.New("unknown category")
	ErrCategoryInUse         = errors.New("category still has products")
)

// maxWriteAttempts bounds the read-validate-write cycle of conditional updates.
const maxWriteAttempts = 3

// retryOnConflict runs op until it succeeds, fails with anything other than
// ErrConflict, or runs out of attempts. op must re-read what it validates.
func retryOnConflict(what string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = op()
		if !errors.Is(err, ErrConflict) {
			return err
		}
		log.Printf("Conflict writing %s (attempt %d/%d)", what, attempt, maxWriteAttempts)
	}
	return err
}
