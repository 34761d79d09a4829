package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles product reviews.
type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers the review routes. Customers check eligibility
// and post reviews; listing and moderation are back-office operations.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router, requireAuth, requireAdmin fiber.Handler) {
	reviewRoutes := router.Group("/reviews")
	reviewRoutes.Get("/can-review", requireAuth, h.HandleCanReview)
	reviewRoutes.Post("/", requireAuth, h.HandleCreate)
	reviewRoutes.Get("/:product_id", requireAuth, requireAdmin, h.HandleList)
	reviewRoutes.Delete("/:review_id", requireAuth, requireAdmin, h.HandleDelete)
}

// HandleCanReview reports whether the caller may review product_id.
func (h *ReviewHandler) HandleCanReview(c *fiber.Ctx) error {
	qualified, err := h.service.IsQualified(c.UserContext(), middleware.Principal(c).ID, c.Query("product_id"))
	if err != nil {
		return respondError(c, err, "Could not check review eligibility")
	}
	return c.JSON(fiber.Map{"qualified": qualified})
}

type createReviewRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Rating    int     `json:"rating" validate:"gte=1,lte=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

func (h *ReviewHandler) HandleCreate(c *fiber.Ctx) error {
	var req createReviewRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	review, err := h.service.CreateReview(c.UserContext(), middleware.Principal(c).ID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err, "Could not create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) HandleList(c *fiber.Ctx) error {
	reviews, err := h.service.ListByProduct(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteReview(c.UserContext(), c.Params("review_id"), middleware.Principal(c)); err != nil {
		return respondError(c, err, "Could not delete review")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
