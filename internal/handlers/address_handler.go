package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles a user's own delivery addresses.
type AddressHandler struct {
	service *services.AddressService
}

func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

// RegisterRoutes expects router to be authenticated.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Get("/", h.HandleList)
	addressRoutes.Get("/:id", h.HandleGet)
	addressRoutes.Post("/", h.HandleCreate)
	addressRoutes.Put("/:id", h.HandleUpdate)
	addressRoutes.Delete("/:id", h.HandleDelete)
}

func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	addresses, err := h.service.List(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not retrieve addresses")
	}
	return c.JSON(addresses)
}

func (h *AddressHandler) HandleGet(c *fiber.Ctx) error {
	address, err := h.service.Get(c.UserContext(), c.Params("id"), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not retrieve address")
	}
	return c.JSON(address)
}

func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var address models.Address
	if ok, err := bind(c, &address); !ok {
		return err
	}
	if err := h.service.Create(c.UserContext(), middleware.Principal(c).ID, &address); err != nil {
		return respondError(c, err, "Could not create address")
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

func (h *AddressHandler) HandleUpdate(c *fiber.Ctx) error {
	var address models.Address
	if ok, err := bind(c, &address); !ok {
		return err
	}
	if err := h.service.Update(c.UserContext(), c.Params("id"), middleware.Principal(c).ID, &address); err != nil {
		return respondError(c, err, "Could not update address")
	}
	return c.JSON(address)
}

func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id"), middleware.Principal(c).ID); err != nil {
		return respondError(c, err, "Could not delete address")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
