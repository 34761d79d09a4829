package handlers

import (
	"tokoshop/internal/middleware"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and their shipments.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order and shipping routes. router must be
// authenticated; requireAdmin guards the back-office operations.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireAdmin fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/all", requireAdmin, h.HandleGetAllOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", requireAdmin, h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", requireAdmin, h.HandleDeleteOrder)

	shippingRoutes := router.Group("/shipping")
	shippingRoutes.Get("/:order_id", h.HandleGetShipping)
	shippingRoutes.Patch("/:order_id/carrier", requireAdmin, h.HandleUpdateCarrier)
	shippingRoutes.Patch("/:order_id/tracking", requireAdmin, h.HandleUpdateTracking)
	shippingRoutes.Patch("/:order_id/status", requireAdmin, h.HandleUpdateShippingStatus)
}

// HandleGetMyOrders lists the caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMine(c.UserContext(), middleware.Principal(c).ID)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.Get(c.UserContext(), c.Params("id"), middleware.Principal(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus moves an order along the order status graph.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req orderStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderHandler) HandleGetShipping(c *fiber.Ctx) error {
	shipping, err := h.service.GetShipping(c.UserContext(), c.Params("order_id"), middleware.Principal(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve shipping")
	}
	return c.JSON(shipping)
}

type carrierRequest struct {
	Carrier        models.ShippingCarrier `json:"shipping_carrier" validate:"required"`
	TrackingNumber *string                `json:"tracking_number"`
}

func (h *OrderHandler) HandleUpdateCarrier(c *fiber.Ctx) error {
	var req carrierRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !req.Carrier.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown shipping carrier",
			"error":   string(req.Carrier),
		})
	}
	shipping, err := h.service.UpdateShippingCarrier(c.UserContext(), c.Params("order_id"), req.Carrier, req.TrackingNumber)
	if err != nil {
		return respondError(c, err, "Could not update carrier")
	}
	return c.JSON(shipping)
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,max=100"`
}

func (h *OrderHandler) HandleUpdateTracking(c *fiber.Ctx) error {
	var req trackingRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	shipping, err := h.service.UpdateShippingTracking(c.UserContext(), c.Params("order_id"), req.TrackingNumber)
	if err != nil {
		return respondError(c, err, "Could not update tracking number")
	}
	return c.JSON(shipping)
}

type shippingStatusRequest struct {
	Status models.ShippingStatus `json:"status" validate:"required"`
}

// HandleUpdateShippingStatus moves the shipment, and with it the order.
func (h *OrderHandler) HandleUpdateShippingStatus(c *fiber.Ctx) error {
	var req shippingStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	order, err := h.service.UpdateShippingStatus(c.UserContext(), c.Params("order_id"), req.Status)
	if err != nil {
		return respondError(c, err, "Could not update shipping status")
	}
	return c.JSON(order)
}
