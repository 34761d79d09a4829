package services_test

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
	"testing"

	"tokoshop/internal/events"
	"tokoshop/internal/metrics"
	"tokoshop/internal/models"
	"tokoshop/internal/payment"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// shop wires every service over the in-memory repositories.
type shop struct {
	carts     *repositories.MockCartRepository
	orders    *repositories.MockOrderRepository
	addresses *repositories.MockAddressRepository
	products  *repositories.MockProductRepository
	category  *repositories.MockCategoryRepository
	users     *repositories.MockUserRepository
	reviews   *repositories.MockReviewRepository
	published *recordingPublisher

	catalog  *services.ProductService
	cart     *services.CartService
	checkout *services.CheckoutService
	orderSvc *services.OrderService
	review   *services.ReviewService
}

// newShop registers the free and dummy gateways unless names are given.
func newShop(t *testing.T, names ...string) *shop {
	t.Helper()
	if len(names) == 0 {
		names = []string{"free", "dummy_gateway"}
	}
	gateways, err := payment.Build("/api/v1", names)
	require.NoError(t, err)

	s := &shop{
		carts:     repositories.NewMockCartRepository(),
		orders:    repositories.NewMockOrderRepository(),
		addresses: repositories.NewMockAddressRepository(),
		products:  repositories.NewMockProductRepository(),
		category:  repositories.NewMockCategoryRepository(),
		users:     repositories.NewMockUserRepository(),
		reviews:   repositories.NewMockReviewRepository(),
		published: &recordingPublisher{},
	}
	m := metrics.New()
	s.catalog = services.NewProductService(s.products, s.category)
	s.cart = services.NewCartService(s.carts, s.catalog, m)
	s.checkout = services.NewCheckoutService(s.carts, s.orders, s.addresses, s.catalog, gateways, s.published, m, 0)
	s.orderSvc = services.NewOrderService(s.orders, s.published, m)
	s.review = services.NewReviewService(s.reviews, s.orders, s.products, s.users, s.published)
	return s
}

func (s *shop) addProduct(t *testing.T, price string, stock int) string {
	t.Helper()
	p := &models.Product{
		SKU:    "SKU-" + uuid.New().String(),
		Name:   "Product " + price,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: models.ProductStatusPublished,
	}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p.ID
}

func (s *shop) addAddress(t *testing.T, userID string) string {
	t.Helper()
	a := &models.Address{UserID: userID, Street1: "1 Queen's Road", City: "Hong Kong", State: "HK", Country: "HK"}
	require.NoError(t, s.addresses.Create(context.Background(), a))
	return a.ID
}

// fillCart puts qty of productID in userID's cart and returns the cart id.
func (s *shop) fillCart(t *testing.T, userID, productID string, qty int) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.cart.SetLineQuantity(ctx, userID, productID, qty))
	cart, err := s.carts.GetByUser(ctx, userID)
	require.NoError(t, err)
	return cart.ID
}

func (s *shop) setPrice(t *testing.T, productID, price string) {
	t.Helper()
	ctx := context.Background()
	p, err := s.products.GetByID(ctx, productID)
	require.NoError(t, err)
	p.Price = decimal.RequireFromString(price)
	require.NoError(t, s.products.Update(ctx, p))
}

func (s *shop) setStock(t *testing.T, productID string, stock int) {
	t.Helper()
	ctx := context.Background()
	p, err := s.products.GetByID(ctx, productID)
	require.NoError(t, err)
	p.Stock = stock
	require.NoError(t, s.products.Update(ctx, p))
}

// paidOrder checks out one unit of productID with the dummy gateway and
// confirms the payment.
func (s *shop) paidOrder(t *testing.T, userID, productID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	cartID := s.fillCart(t, userID, productID, 1)
	_, err := s.checkout.BeginPayment(ctx, userID, cartID, s.addAddress(t, userID), models.GatewayDummy)
	require.NoError(t, err)
	order, err := s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref-"+cartID)
	require.NoError(t, err)
	return order
}

// completedOrder drives a paid order through shipping to completed.
func (s *shop) completedOrder(t *testing.T, userID, productID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := s.paidOrder(t, userID, productID)
	for _, st := range []models.ShippingStatus{models.ShippingStatusPendingPickup, models.ShippingStatusShipped, models.ShippingStatusDelivered} {
		var err error
		order, err = s.orderSvc.UpdateShippingStatus(ctx, order.ID, st)
		require.NoError(t, err)
	}
	require.Equal(t, models.OrderStatusCompleted, order.Status)
	return order
}
