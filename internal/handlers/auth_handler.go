package handlers

import (
	"log"

	"tokoshop/internal/middleware"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/me", requireAuth, h.HandleMe)

	accountRoutes := router.Group("/account", requireAuth)
	accountRoutes.Put("/password", h.HandleChangePassword)
	accountRoutes.Put("/email", h.HandleChangeEmail)
	accountRoutes.Put("/name", h.HandleChangeName)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return respondError(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return respondError(c, err, "Authentication failed")
	}

	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      token,
		"token_type": "bearer",
	})
}

// HandleMe returns the authenticated user's account.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not retrieve account")
	}
	return c.JSON(user)
}

// HandleChangePassword replaces the caller's password. The token used for
// the request is revoked along with every other token of the account.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req services.PasswordChange
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if err := h.authService.ChangePassword(c.UserContext(), middleware.Principal(c).ID, req); err != nil {
		return respondError(c, err, "Could not change password")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changeEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) HandleChangeEmail(c *fiber.Ctx) error {
	var req changeEmailRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if err := h.authService.ChangeEmail(c.UserContext(), middleware.Principal(c).ID, req.Email); err != nil {
		return respondError(c, err, "Could not change email")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type changeNameRequest struct {
	First string `json:"first" validate:"required,min=1,max=100"`
	Last  string `json:"last" validate:"omitempty,max=100"`
}

func (h *AuthHandler) HandleChangeName(c *fiber.Ctx) error {
	var req changeNameRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if err := h.authService.ChangeName(c.UserContext(), middleware.Principal(c).ID, req.First, req.Last); err != nil {
		return respondError(c, err, "Could not change name")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
