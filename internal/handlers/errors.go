package handlers

import (
	"errors"
	"fmt"
	"log"

	"tokoshop/internal/payment"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrRegistrationClosed):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrOrderAlreadyProcessed),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCategoryInUse),
		errors.Is(err, repositories.ErrDuplicateKey):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrPaymentMismatch),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrNotQualified),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrUnknownCategory),
		errors.Is(err, payment.ErrUnknownGateway),
		errors.Is(err, payment.ErrInvalidCallback):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError logs err and writes it with the status it maps to.
func respondError(c *fiber.Ctx, err error, message string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// bind decodes the request body into dst and validates it. When ok is false
// the error response has already been written and err is what the handler
// should return.
func bind(c *fiber.Ctx, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	return check(c, dst)
}

// check validates v, writing a 400 response listing the failed fields.
func check(c *fiber.Ctx, v any) (ok bool, err error) {
	verr := validate.Struct(v)
	if verr == nil {
		return true, nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(verr, &validationErrors) {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   verr.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
