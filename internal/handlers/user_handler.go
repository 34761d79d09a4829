package handlers

import (
	"log"

	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler exposes account administration to administrators.
type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the /users routes. router must be authenticated.
func (h *UserHandler) RegisterRoutes(router fiber.Router, requireAdmin fiber.Handler) {
	userRoutes := router.Group("/users", requireAdmin)
	userRoutes.Get("/", h.HandleList)
	userRoutes.Get("/:id", h.HandleGet)
	userRoutes.Put("/:id", h.HandleUpdate)
	userRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList lists every account, filtered by the email query parameter when present.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), c.Query("email"))
	if err != nil {
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve user")
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	var req services.UserUpdate
	if ok, err := bind(c, &req); !ok {
		return err
	}
	user, err := h.service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		log.Printf("Error updating user %s: %v", c.Params("id"), err)
		return respondError(c, err, "Could not update user")
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
