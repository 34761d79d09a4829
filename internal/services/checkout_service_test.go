package services_test

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tokoshop/internal/events"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_DummyGatewayThenConfirm(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	productA := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", productA, 2)
	addressID := s.addAddress(t, "user-1")

	redirect, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)
	assert.Equal(t, cartID, redirect.OrderID)
	assert.Contains(t, redirect.RedirectURL, "/api/v1/checkout/dummy-payment?order_id="+cartID)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, cartID, order.ID, "order id is the cart id")
	assert.Equal(t, addressID, order.AddressID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	require.NotNil(t, order.ExpireDate)
	assert.WithinDuration(t, time.Now().Add(services.DefaultPaymentWindow), *order.ExpireDate, time.Minute)
	require.Len(t, order.Payments, 1)
	assert.Equal(t, models.PaymentStatusPending, order.Payments[0].Status)
	assert.True(t, order.Payments[0].Amount.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, []models.OrderItem{{ProductID: productA, Quantity: 2}}, order.Items)

	_, err = s.carts.GetByID(ctx, cartID, "user-1")
	assert.ErrorIs(t, err, services.ErrNotFound, "the converted cart is deleted")

	confirmed, err := s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, confirmed.Status)
	assert.Nil(t, confirmed.ExpireDate)
	require.Len(t, confirmed.Payments, 1)
	assert.Equal(t, models.PaymentStatusPaid, confirmed.Payments[0].Status)
	require.NotNil(t, confirmed.Payments[0].ReferenceID)
	assert.Equal(t, "ref1", *confirmed.Payments[0].ReferenceID)

	assert.Equal(t, []string{events.OrderCreated, events.OrderPaymentStarted, events.OrderPaid}, s.published.types())
}

func TestCheckout_FreeZeroTotalSettlesImmediately(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	sticker := s.addProduct(t, "0.00", 10)
	cartID := s.fillCart(t, "user-1", sticker, 3)

	options, err := s.checkout.PaymentOptions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []models.PaymentGateway{models.GatewayFree}, options)

	redirect, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayFree)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/orders/"+cartID, redirect.RedirectURL)
	assert.NotContains(t, redirect.RedirectURL, "dummy-payment")

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Nil(t, order.ExpireDate)
	require.Len(t, order.Payments, 1)
	assert.Equal(t, models.PaymentStatusPaid, order.Payments[0].Status)
	assert.Equal(t, models.GatewayFree, order.Payments[0].Gateway)
}

func TestCheckout_FreeGatewayRejectsNonZeroTotal(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)

	options, err := s.checkout.PaymentOptions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []models.PaymentGateway{models.GatewayDummy}, options)

	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayFree)
	assert.ErrorIs(t, err, services.ErrPaymentMismatch)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, order.Payments, "no attempt is recorded for a mismatched gateway")
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
}

func TestCheckout_RetryWhilePendingSupersedesAttempt(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)
	addressID := s.addAddress(t, "user-1")

	first, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)
	second, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, order.Payments, 2)
	assert.Equal(t, models.PaymentStatusCancelled, order.Payments[0].Status)
	assert.Equal(t, models.PaymentStatusPending, order.Payments[1].Status)
	assert.Equal(t, 1, order.PendingPaymentCount())

	all, err := s.orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCheckout_RetryAfterPaymentIsAlreadyProcessed(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)
	addressID := s.addAddress(t, "user-1")

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)
	_, err = s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref1")
	require.NoError(t, err)

	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrOrderAlreadyProcessed)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Len(t, order.Payments, 1)
}

func TestCheckout_TotalFrozenAtCreation(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 2)
	addressID := s.addAddress(t, "user-1")

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)

	s.setPrice(t, p, "99.99")
	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	for _, attempt := range order.Payments {
		assert.True(t, attempt.Amount.Equal(decimal.RequireFromString("20.00")))
	}
}

func TestCheckout_ConfirmPaymentIsIdempotent(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayDummy)
	require.NoError(t, err)
	_, err = s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref1")
	require.NoError(t, err)
	before, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)

	_, err = s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref2")
	assert.ErrorIs(t, err, services.ErrOrderAlreadyProcessed)

	after, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "ref1", *after.Payments[0].ReferenceID)
}

func TestCheckout_ConfirmFailedKeepsOrderPending(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)
	addressID := s.addAddress(t, "user-1")

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)

	order, err := s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusFailed, "declined")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.Payments[0].Status)

	again, err := s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusFailed, "declined")
	require.NoError(t, err)
	assert.Equal(t, order.Payments, again.Payments)

	_, err = s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "late")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// The customer may try again with a fresh attempt.
	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
	require.NoError(t, err)
	order, err = s.checkout.ConfirmPayment(ctx, cartID, models.PaymentStatusPaid, "ref2")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	require.Len(t, order.Payments, 2)
	assert.Equal(t, models.PaymentStatusFailed, order.Payments[0].Status)
	assert.Equal(t, models.PaymentStatusPaid, order.Payments[1].Status)
}

func TestCheckout_ConfirmRejectsUnknownOutcome(t *testing.T) {
	s := newShop(t)
	_, err := s.checkout.ConfirmPayment(context.Background(), "any", models.PaymentStatusRefunded, "")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = s.checkout.ConfirmPayment(context.Background(), "missing", models.PaymentStatusPaid, "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCheckout_OwnershipChecks(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)
	myAddress := s.addAddress(t, "user-1")
	theirAddress := s.addAddress(t, "user-2")

	_, err := s.checkout.BeginPayment(ctx, "user-2", cartID, theirAddress, models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrNotFound, "cart of another user")

	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, theirAddress, models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrNotFound, "address of another user")

	_, err = s.checkout.BeginPayment(ctx, "user-1", "no-such-cart", myAddress, models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = s.orders.GetByID(ctx, cartID)
	assert.ErrorIs(t, err, services.ErrNotFound, "failed checkouts create nothing")

	_, err = s.checkout.BeginPayment(ctx, "user-1", cartID, myAddress, models.GatewayDummy)
	require.NoError(t, err)
	_, err = s.checkout.BeginPayment(ctx, "user-2", cartID, theirAddress, models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrNotFound, "order of another user")
}

func TestCheckout_UnavailableProductCreatesNothing(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 5)
	s.setStock(t, p, 4)

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayDummy)
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	_, err = s.orders.GetByID(ctx, cartID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = s.carts.GetByID(ctx, cartID, "user-1")
	assert.NoError(t, err, "the cart survives a failed checkout")
}

func TestCheckout_UnknownGateway(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayStripe)
	assert.Error(t, err)
	_, err = s.orders.GetByID(ctx, cartID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCheckout_ConcurrentBeginPaymentCreatesOneOrder(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)
	addressID := s.addAddress(t, "user-1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.checkout.BeginPayment(ctx, "user-1", cartID, addressID, models.GatewayDummy)
		}()
	}
	wg.Wait()

	all, err := s.orders.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.LessOrEqual(t, all[0].PendingPaymentCount(), 1)
}

func TestCheckout_SimulatedGatewayRoundTrip(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "12.50", 10)
	cartID := s.fillCart(t, "user-1", p, 1)

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayDummy)
	require.NoError(t, err)

	_, err = s.checkout.SimulateGatewayPayment(ctx, "user-2", cartID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	callback, err := s.checkout.SimulateGatewayPayment(ctx, "user-1", cartID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(callback, "/api/v1/checkout/callback/dummy_gateway?"))

	u, err := url.Parse(callback)
	require.NoError(t, err)
	params := map[string]string{}
	for k := range u.Query() {
		params[k] = u.Query().Get(k)
	}

	order, err := s.checkout.HandleCallback(ctx, models.GatewayDummy, params)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, params["reference_id"], *order.Payments[0].ReferenceID)

	_, err = s.checkout.SimulateGatewayPayment(ctx, "user-1", cartID)
	assert.ErrorIs(t, err, services.ErrOrderAlreadyProcessed)
}

func TestCheckout_CallbackFromOtherGatewayIsRejected(t *testing.T) {
	s := newShop(t, "free", "dummy_gateway", "stripe")
	ctx := context.Background()
	p := s.addProduct(t, "30.00", 10)
	cartID := s.fillCart(t, "user-1", p, 1)

	_, err := s.checkout.BeginPayment(ctx, "user-1", cartID, s.addAddress(t, "user-1"), models.GatewayStripe)
	require.NoError(t, err)

	_, err = s.checkout.HandleCallback(ctx, models.GatewayDummy, map[string]string{
		"order_id":       cartID,
		"payment_status": "paid",
		"reference_id":   "dummy|forged",
	})
	assert.ErrorIs(t, err, services.ErrPaymentMismatch)

	order, err := s.orders.GetByID(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.LatestPayment().Status)
	assert.Nil(t, order.LatestPayment().ReferenceID)

	order, err = s.checkout.HandleCallback(ctx, models.GatewayStripe, map[string]string{
		"client_reference_id": cartID,
		"payment_status":      "paid",
		"session_id":          "cs_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "cs_test_1", *order.LatestPayment().ReferenceID)
}

func TestCheckout_SummaryRequiresCart(t *testing.T) {
	s := newShop(t)
	_, err := s.checkout.Summary(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
