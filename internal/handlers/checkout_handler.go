package handlers

import (
	"log"

	"tokoshop/internal/middleware"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles checkout, payment start and gateway callbacks.
type CheckoutHandler struct {
	service *services.CheckoutService
}

func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers the checkout routes. Gateway callbacks are not
// authenticated with a user token.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Get("/callback/:gateway", h.HandleCallback)
	checkoutRoutes.Get("/summary", requireAuth, h.HandleSummary)
	checkoutRoutes.Get("/payment-options", requireAuth, h.HandlePaymentOptions)
	checkoutRoutes.Get("/dummy-payment", requireAuth, h.HandleDummyPayment)
	checkoutRoutes.Post("/", requireAuth, h.HandleBeginPayment)
}

func (h *CheckoutHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not summarize cart")
	}
	return c.JSON(summary)
}

func (h *CheckoutHandler) HandlePaymentOptions(c *fiber.Ctx) error {
	options, err := h.service.PaymentOptions(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not list payment options")
	}
	return c.JSON(options)
}

// BeginPaymentRequest is the body of a checkout.
type BeginPaymentRequest struct {
	CartID    string                `json:"cart_id" validate:"required"`
	AddressID string                `json:"address_id" validate:"required"`
	Gateway   models.PaymentGateway `json:"gateway" validate:"required"`
}

// HandleBeginPayment creates the order for a cart and starts paying for it.
func (h *CheckoutHandler) HandleBeginPayment(c *fiber.Ctx) error {
	var req BeginPaymentRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	redirect, err := h.service.BeginPayment(c.UserContext(), middleware.Principal(c).ID, req.CartID, req.AddressID, req.Gateway)
	if err != nil {
		log.Printf("Checkout of cart %s failed: %v", req.CartID, err)
		return respondError(c, err, "Checkout failed")
	}
	return c.JSON(redirect)
}

// HandleDummyPayment plays the simulated gateway's payment page and sends the
// customer to the success callback.
func (h *CheckoutHandler) HandleDummyPayment(c *fiber.Ctx) error {
	callbackURL, err := h.service.SimulateGatewayPayment(c.UserContext(), middleware.Principal(c).ID, c.Query("order_id"))
	if err != nil {
		return respondError(c, err, "Payment page unavailable")
	}
	return c.Redirect(callbackURL, fiber.StatusFound)
}

// HandleCallback receives a gateway's payment outcome.
func (h *CheckoutHandler) HandleCallback(c *fiber.Ctx) error {
	order, err := h.service.HandleCallback(c.UserContext(), models.PaymentGateway(c.Params("gateway")), c.Queries())
	if err != nil {
		log.Printf("Payment callback from %s rejected: %v", c.Params("gateway"), err)
		return respondError(c, err, "Payment callback rejected")
	}
	return c.JSON(order)
}
