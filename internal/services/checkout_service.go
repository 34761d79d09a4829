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
	"tokoshop/internal/payment"
	"tokoshop/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultPaymentWindow is how long an order may stay unpaid.
const DefaultPaymentWindow = 24 * time.Hour

// PaymentRedirect tells the client where to go after starting a payment.
type PaymentRedirect struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutService turns carts into orders and drives their payment.
type CheckoutService struct {
	carts         repositories.CartRepository
	orders        repositories.OrderRepository
	addresses     repositories.AddressRepository
	cartView      *CartService
	gateways      *payment.Registry
	publisher     events.Publisher
	metrics       *metrics.Metrics
	paymentWindow time.Duration
	now           func() time.Time
}

// NewCheckoutService creates a new CheckoutService. A zero paymentWindow
// uses DefaultPaymentWindow.
func NewCheckoutService(
	carts repositories.CartRepository,
	orders repositories.OrderRepository,
	addresses repositories.AddressRepository,
	catalog Catalog,
	gateways *payment.Registry,
	publisher events.Publisher,
	m *metrics.Metrics,
	paymentWindow time.Duration,
) *CheckoutService {
	if paymentWindow <= 0 {
		paymentWindow = DefaultPaymentWindow
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CheckoutService{
		carts:         carts,
		orders:        orders,
		addresses:     addresses,
		cartView:      NewCartService(carts, catalog, m),
		gateways:      gateways,
		publisher:     publisher,
		metrics:       m,
		paymentWindow: paymentWindow,
		now:           time.Now,
	}
}

// Summary prices the user's cart, pruning lines that can no longer be bought.
func (s *CheckoutService) Summary(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("cart for user %s: %w", userID, err)
	}
	return s.cartView.view(ctx, cart)
}

// PaymentOptions lists the gateways able to collect the user's cart total.
func (s *CheckoutService) PaymentOptions(ctx context.Context, userID string) ([]models.PaymentGateway, error) {
	summary, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.gateways.Accepting(summary.Amount), nil
}

// BeginPayment converts the cart into an order, keyed by the cart id, and
// starts a payment attempt on it. Calling it again for the same cart while
// the order is unpaid supersedes the previous attempt.
func (s *CheckoutService) BeginPayment(ctx context.Context, userID, cartID, addressID string, gateway models.PaymentGateway) (redirect *PaymentRedirect, err error) {
	defer func() { s.metrics.ObserveCheckout(string(gateway), err) }()

	gw, err := s.gateways.Get(gateway)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrCreateOrder(ctx, userID, cartID, addressID)
	if err != nil {
		return nil, err
	}

	if gateway == models.GatewayFree && !order.TotalAmount.IsZero() {
		return nil, fmt.Errorf("%w: order %s totals %s", ErrPaymentMismatch, order.ID, order.TotalAmount.StringFixed(2))
	}

	order, err = s.appendPendingPayment(ctx, order.ID, userID, gateway)
	if err != nil {
		return nil, err
	}

	start, err := gw.StartPayment(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s payment for order %s: %w", gateway, order.ID, err)
	}
	events.Emit(ctx, s.publisher, events.Event{
		Type:    events.OrderPaymentStarted,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Amount:  order.TotalAmount.StringFixed(2),
		Data:    map[string]string{"gateway": string(gateway)},
	})

	if start.Settled {
		if _, err := s.ConfirmPayment(ctx, order.ID, models.PaymentStatusPaid, ""); err != nil {
			return nil, err
		}
	}

	return &PaymentRedirect{OrderID: order.ID, RedirectURL: start.RedirectURL}, nil
}

// loadOrCreateOrder returns the unpaid order for cartID, creating it from the
// cart when it does not exist yet.
func (s *CheckoutService) loadOrCreateOrder(ctx context.Context, userID, cartID, addressID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, cartID)
	if errors.Is(err, ErrNotFound) {
		order, err = s.createOrder(ctx, userID, cartID, addressID)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost the creation race to a concurrent checkout of the same cart.
			log.Printf("Order %s created concurrently, continuing with existing order", cartID)
			order, err = s.orders.GetByID(ctx, cartID)
		}
	}
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, fmt.Errorf("order with ID %s %w", cartID, ErrNotFound)
	}
	if order.Status != models.OrderStatusPendingPayment {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderAlreadyProcessed, order.ID, order.Status)
	}
	s.discardConvertedCart(ctx, cartID, userID)
	return order, nil
}

func (s *CheckoutService) createOrder(ctx context.Context, userID, cartID, addressID string) (*models.Order, error) {
	cart, err := s.carts.GetByID(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}
	address, err := s.addresses.GetByID(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart %s is empty: %w", cart.ID, ErrNotFound)
	}

	snap, err := s.cartView.catalog.Snapshot(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := snap[line.ProductID]
		if !ok || !p.Sellable(line.Quantity) {
			return nil, fmt.Errorf("%w: product %s", ErrProductUnavailable, line.ProductID)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	now := s.now().UTC()
	expireAt := now.Add(s.paymentWindow)
	order := &models.Order{
		ID:          cart.ID,
		UserID:      userID,
		AddressID:   address.ID,
		Items:       items,
		TotalAmount: total.Round(2),
		Payments:    []models.Payment{},
		Shipping:    models.NewShipping(),
		Status:      models.OrderStatusPendingPayment,
		ExpireDate:  &expireAt,
		CreatedAt:   now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	log.Printf("Created order %s for user %s totalling %s", order.ID, userID, order.TotalAmount.StringFixed(2))

	events.Emit(ctx, s.publisher, events.Event{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		UserID:  userID,
		Status:  string(order.Status),
		Amount:  order.TotalAmount.StringFixed(2),
	})
	return order, nil
}

// discardConvertedCart deletes the cart an order was created from. A failed
// delete is logged and retried by the next checkout of the same cart.
func (s *CheckoutService) discardConvertedCart(ctx context.Context, cartID, userID string) {
	cart, err := s.carts.GetByID(ctx, cartID, userID)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err == nil {
		err = s.carts.Delete(ctx, cart)
	}
	if err != nil {
		log.Printf("Warning: failed to delete cart %s after checkout: %v", cartID, err)
	}
}

// appendPendingPayment supersedes any pending attempt and appends a new one.
func (s *CheckoutService) appendPendingPayment(ctx context.Context, orderID, userID string, gateway models.PaymentGateway) (*models.Order, error) {
	var order *models.Order
	err := retryOnConflict("order "+orderID, func() error {
		current, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return fmt.Errorf("order with ID %s %w", orderID, ErrNotFound)
		}
		if current.Status != models.OrderStatusPendingPayment {
			return fmt.Errorf("%w: order %s is %s", ErrOrderAlreadyProcessed, current.ID, current.Status)
		}
		if current.SupersedePendingPayment() {
			log.Printf("Superseded pending payment on order %s", current.ID)
		}
		current.Payments = append(current.Payments, models.Payment{
			Amount:    current.TotalAmount,
			Gateway:   gateway,
			Status:    models.PaymentStatusPending,
			CreatedAt: s.now().UTC(),
		})
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

// ConfirmPayment records the outcome of the order's latest payment attempt.
// A paid outcome moves the order to processing. The order must still be
// pending payment, which makes repeated confirmations harmless.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, orderID string, outcome models.PaymentStatus, referenceID string) (*models.Order, error) {
	return s.confirm(ctx, orderID, "", outcome, referenceID)
}

// confirm records outcome on the latest attempt. A non-empty gateway must be
// the gateway that attempt was started with.
func (s *CheckoutService) confirm(ctx context.Context, orderID string, gateway models.PaymentGateway, outcome models.PaymentStatus, referenceID string) (*models.Order, error) {
	if outcome != models.PaymentStatusPaid && outcome != models.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: payment outcome %q", ErrInvalidTransition, outcome)
	}

	var order *models.Order
	err := retryOnConflict("order "+orderID, func() error {
		current, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status != models.OrderStatusPendingPayment {
			return fmt.Errorf("%w: order %s is %s", ErrOrderAlreadyProcessed, current.ID, current.Status)
		}
		latest := current.LatestPayment()
		if latest == nil {
			return fmt.Errorf("payment attempt for order %s %w", current.ID, ErrNotFound)
		}
		if gateway != "" && latest.Gateway != gateway {
			return fmt.Errorf("%w: %s callback for a %s attempt on order %s", ErrPaymentMismatch, gateway, latest.Gateway, current.ID)
		}
		if latest.Status == outcome {
			order = current
			return nil
		}

		if err := latest.TransitionTo(outcome); err != nil {
			return err
		}
		if referenceID != "" {
			ref := referenceID
			latest.ReferenceID = &ref
		}
		if outcome == models.PaymentStatusPaid {
			if err := current.TransitionTo(models.OrderStatusProcessing); err != nil {
				return err
			}
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

	s.metrics.ObserveConfirmation(string(outcome))
	eventType := events.OrderPaid
	if outcome != models.PaymentStatusPaid {
		eventType = events.OrderPaymentFailed
	}
	log.Printf("Payment for order %s confirmed as %s", order.ID, outcome)
	events.Emit(ctx, s.publisher, events.Event{
		Type:    eventType,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Amount:  order.TotalAmount.StringFixed(2),
		Data:    map[string]string{"reference_id": referenceID},
	})
	return order, nil
}

// HandleCallback parses a gateway callback and confirms the payment it
// reports. Only the gateway the latest attempt was started with may settle it.
func (s *CheckoutService) HandleCallback(ctx context.Context, gateway models.PaymentGateway, params map[string]string) (*models.Order, error) {
	gw, err := s.gateways.Get(gateway)
	if err != nil {
		return nil, err
	}
	cb, err := gw.ParseCallback(params)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, cb.OrderID, gateway, cb.Outcome, cb.ReferenceID)
}

// SimulateGatewayPayment stands in for a hosted payment page: for an order
// whose pending attempt uses a simulated gateway it returns the callback URL
// that reports the attempt as paid.
func (s *CheckoutService) SimulateGatewayPayment(ctx context.Context, userID, orderID string) (string, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.UserID != userID {
		return "", fmt.Errorf("order with ID %s %w", orderID, ErrNotFound)
	}
	if order.Status != models.OrderStatusPendingPayment {
		return "", fmt.Errorf("%w: order %s is %s", ErrOrderAlreadyProcessed, order.ID, order.Status)
	}
	latest := order.LatestPayment()
	if latest == nil || latest.Status != models.PaymentStatusPending {
		return "", fmt.Errorf("pending payment for order %s %w", orderID, ErrNotFound)
	}

	gw, err := s.gateways.Get(latest.Gateway)
	if err != nil {
		return "", err
	}
	sim, ok := gw.(payment.Simulator)
	if !ok {
		return "", fmt.Errorf("%w: %s has no simulated payment page", ErrPaymentMismatch, latest.Gateway)
	}
	callbackURL, referenceID := sim.CallbackURL(order.ID)
	log.Printf("Simulated %s payment page for order %s issued reference %s", latest.Gateway, order.ID, referenceID)
	return callbackURL, nil
}
