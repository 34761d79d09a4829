package handlers

import (
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for product categories.
type CategoryHandler struct {
	service *services.CategoryService
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers the category routes. Reads are public, writes
// need the admin role.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, requireAdmin ...fiber.Handler) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleList)
	categoryRoutes.Get("/:name", h.HandleGet)
	categoryRoutes.Get("/:name/products", h.HandleProducts)
	categoryRoutes.Post("/", append(requireAdmin, h.HandleCreate)...)
	categoryRoutes.Put("/:name", append(requireAdmin, h.HandleRename)...)
	categoryRoutes.Delete("/:name", append(requireAdmin, h.HandleDelete)...)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

func (h *CategoryHandler) HandleList(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleGet(c *fiber.Ctx) error {
	category, err := h.service.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve category")
	}
	return c.JSON(category)
}

// HandleProducts lists the published products of a category.
func (h *CategoryHandler) HandleProducts(c *fiber.Ctx) error {
	products, err := h.service.Products(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve category products")
	}
	return c.JSON(products)
}

func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var req categoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	category, err := h.service.Create(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleRename renames a category; its products follow.
func (h *CategoryHandler) HandleRename(c *fiber.Ctx) error {
	var req categoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	category, err := h.service.Rename(c.UserContext(), c.Params("name"), req.Name)
	if err != nil {
		return respondError(c, err, "Could not rename category")
	}
	return c.JSON(category)
}

func (h *CategoryHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("name")); err != nil {
		return respondError(c, err, "Could not delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
