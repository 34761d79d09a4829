package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles the authenticated user's cart.
type CartHandler struct {
	service *services.CartService
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes expects router to be authenticated.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleRead)
	cartRoutes.Patch("/:product_id", h.HandleSetQuantity)
	cartRoutes.Delete("/:product_id", h.HandleRemove)
}

// HandleRead returns the cart with unavailable lines pruned.
func (h *CartHandler) HandleRead(c *fiber.Ctx) error {
	view, err := h.service.Read(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not retrieve cart")
	}
	return c.JSON(view)
}

// HandleSetQuantity sets a line's quantity from the qty query parameter.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	qty := c.QueryInt("qty", 0)
	err := h.service.SetLineQuantity(c.UserContext(), middleware.Principal(c).ID, c.Params("product_id"), qty)
	if err != nil {
		return respondError(c, err, "Could not update cart")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.RemoveLine(c.UserContext(), middleware.Principal(c).ID, c.Params("product_id")); err != nil {
		return respondError(c, err, "Could not update cart")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
