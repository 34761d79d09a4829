package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/events"
	"tokoshop/internal/metrics"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
)

var errSkip = errors.New("skip")

// OrderService drives orders and their shipments through the status graphs.
type OrderService struct {
	orders    repositories.OrderRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repositories.OrderRepository, publisher events.Publisher, m *metrics.Metrics) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		metrics:   m,
	}
}

// ListMine returns the orders placed by userID.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.orders.GetAll(ctx)
}

// Get returns an order visible to the principal: its owner or an admin.
func (s *OrderService) Get(ctx context.Context, id string, principal models.Principal) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != principal.ID && !principal.IsAdmin() {
		return nil, fmt.Errorf("order with ID %s %w", id, ErrNotFound)
	}
	return order, nil
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	log.Printf("Deleted order %s", id)
	return nil
}

// mutate re-reads the order, applies fn and writes it back conditionally,
// repeating the cycle when another writer got there first. When fn returns
// errSkip nothing is written and the unchanged order is returned.
func (s *OrderService) mutate(ctx context.Context, id string, fn func(*models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := retryOnConflict("order "+id, func() error {
		current, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			if errors.Is(err, errSkip) {
				order = current
				return nil
			}
			return err
		}
		if err := s.orders.Update(ctx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// cancelShipment cancels the shipment along with its order when the shipping
// graph still allows it.
func cancelShipment(order *models.Order) {
	if order.Shipping.Status.CanTransitionTo(models.ShippingStatusCancelled) {
		order.Shipping.Status = models.ShippingStatusCancelled
	}
}

// UpdateStatus moves an order to next along the order graph.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	var from models.OrderStatus
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		from = o.Status
		if err := o.TransitionTo(next); err != nil {
			return err
		}
		if next == models.OrderStatusCancelled {
			cancelShipment(o)
		}
		return nil
	})
	s.metrics.ObserveTransition("order", string(next), err)
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s moved from %s to %s", id, from, next)
	events.Emit(ctx, s.publisher, events.Event{
		Type:    events.OrderStatusChanged,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Data:    map[string]string{"from": string(from)},
	})
	return order, nil
}

// GetShipping returns the shipment of an order visible to the principal.
func (s *OrderService) GetShipping(ctx context.Context, id string, principal models.Principal) (*models.Shipping, error) {
	order, err := s.Get(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	return &order.Shipping, nil
}

// UpdateShippingCarrier assigns a carrier and, optionally, a tracking number.
func (s *OrderService) UpdateShippingCarrier(ctx context.Context, id string, carrier models.ShippingCarrier, trackingNumber *string) (*models.Shipping, error) {
	if !carrier.Valid() {
		return nil, fmt.Errorf("unknown shipping carrier %q", carrier)
	}
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		o.Shipping.Carrier = carrier
		o.Shipping.TrackingNumber = trackingNumber
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitShipping(ctx, order)
	return &order.Shipping, nil
}

// UpdateShippingTracking sets the tracking number of an order's shipment.
func (s *OrderService) UpdateShippingTracking(ctx context.Context, id, trackingNumber string) (*models.Shipping, error) {
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		o.Shipping.TrackingNumber = &trackingNumber
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitShipping(ctx, order)
	return &order.Shipping, nil
}

// UpdateShippingStatus moves the shipment to next and drives the order along:
// shipped makes it delivering, delivered completes it and cancelled cancels
// it. Both moves must be legal or neither is applied. An order already in
// the driven status is left as it is.
func (s *OrderService) UpdateShippingStatus(ctx context.Context, id string, next models.ShippingStatus) (*models.Order, error) {
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		if err := o.Shipping.TransitionTo(next); err != nil {
			return err
		}
		driven, ok := next.DrivenOrderStatus()
		if !ok || o.Status == driven {
			return nil
		}
		return o.TransitionTo(driven)
	})
	s.metrics.ObserveTransition("shipping", string(next), err)
	if err != nil {
		return nil, err
	}

	log.Printf("Shipping of order %s moved to %s, order is %s", id, next, order.Status)
	s.emitShipping(ctx, order)
	return order, nil
}

func (s *OrderService) emitShipping(ctx context.Context, order *models.Order) {
	data := map[string]string{
		"carrier":         string(order.Shipping.Carrier),
		"shipping_status": string(order.Shipping.Status),
	}
	if order.Shipping.TrackingNumber != nil {
		data["tracking_number"] = *order.Shipping.TrackingNumber
	}
	events.Emit(ctx, s.publisher, events.Event{
		Type:    events.ShippingUpdated,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Data:    data,
	})
}

// CancelExpired cancels every unpaid order whose payment window closed at or
// before now and expires its pending payment attempt. It returns how many
// orders were cancelled; failures on individual orders are collected and the
// sweep carries on.
func (s *OrderService) CancelExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.orders.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	cancelled := 0
	var errs []error
	for _, candidate := range expired {
		changed := false
		order, err := s.mutate(ctx, candidate.ID, func(o *models.Order) error {
			changed = false
			// Paid or cancelled since it was listed.
			if !o.Expired(now) {
				return errSkip
			}
			if latest := o.LatestPayment(); latest != nil && latest.Status == models.PaymentStatusPending {
				if err := latest.TransitionTo(models.PaymentStatusExpired); err != nil {
					return err
				}
			}
			if err := o.TransitionTo(models.OrderStatusCancelled); err != nil {
				return err
			}
			cancelShipment(o)
			changed = true
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("Failed to cancel expired order %s: %v", candidate.ID, err)
			errs = append(errs, err)
			continue
		}
		if !changed {
			continue
		}
		cancelled++
		events.Emit(ctx, s.publisher, events.Event{
			Type:    events.OrderExpired,
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  string(order.Status),
		})
	}

	if cancelled > 0 {
		log.Printf("Cancelled %d expired order(s)", cancelled)
	}
	s.metrics.ObserveExpired(cancelled)
	return cancelled, errors.Join(errs...)
}
