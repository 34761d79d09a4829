package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"tokoshop/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistry(t *testing.T) {
	reg, err := Build("/api/v1", []string{"free", "dummy_gateway", "stripe"})
	require.NoError(t, err)

	assert.Equal(t, []models.PaymentGateway{models.GatewayFree}, reg.Accepting(decimal.Zero))
	assert.Equal(t,
		[]models.PaymentGateway{models.GatewayDummy, models.GatewayStripe},
		reg.Accepting(decimal.RequireFromString("20.00")))

	_, err = reg.Get("paypal")
	assert.True(t, errors.Is(err, ErrUnknownGateway))

	_, err = Build("/api/v1", []string{"paypal"})
	assert.True(t, errors.Is(err, ErrUnknownGateway))
}

func TestFreeGatewaySettles(t *testing.T) {
	g := NewFree("/api/v1")
	start, err := g.StartPayment(context.Background(), &models.Order{ID: "o1"})
	require.NoError(t, err)
	assert.True(t, start.Settled)
	assert.Equal(t, "/api/v1/orders/o1", start.RedirectURL)

	_, err = g.ParseCallback(map[string]string{"order_id": "o1"})
	assert.True(t, errors.Is(err, ErrInvalidCallback))
}

func TestDummyGatewayRoundTrip(t *testing.T) {
	g := NewDummy("/api/v1")
	start, err := g.StartPayment(context.Background(), &models.Order{ID: "o1"})
	require.NoError(t, err)
	assert.False(t, start.Settled)
	assert.Equal(t, "/api/v1/checkout/dummy-payment?order_id=o1", start.RedirectURL)

	callback, ref := g.CallbackURL("o1")
	assert.True(t, strings.HasPrefix(ref, "dummy|"))
	u, err := url.Parse(callback)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/checkout/callback/dummy_gateway", u.Path)

	params := map[string]string{}
	for k, v := range u.Query() {
		params[k] = v[0]
	}
	cb, err := g.ParseCallback(params)
	require.NoError(t, err)
	assert.Equal(t, "o1", cb.OrderID)
	assert.Equal(t, models.PaymentStatusPaid, cb.Outcome)
	assert.Equal(t, ref, cb.ReferenceID)
}

func TestDummyParseCallback(t *testing.T) {
	g := NewDummy("")

	_, err := g.ParseCallback(map[string]string{"payment_status": "paid"})
	assert.True(t, errors.Is(err, ErrInvalidCallback))

	_, err = g.ParseCallback(map[string]string{"order_id": "o1", "payment_status": "nope"})
	assert.True(t, errors.Is(err, ErrInvalidCallback))

	cb, err := g.ParseCallback(map[string]string{"order_id": "o1", "payment_status": "expired"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, cb.Outcome)
}

func TestStripeParseCallback(t *testing.T) {
	g := NewStripe("")
	cb, err := g.ParseCallback(map[string]string{
		"client_reference_id": "o1",
		"payment_status":      "paid",
		"session_id":          "cs_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, Callback{OrderID: "o1", Outcome: models.PaymentStatusPaid, ReferenceID: "cs_test_1"}, cb)

	cb, err = g.ParseCallback(map[string]string{"client_reference_id": "o1", "payment_status": "unpaid"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, cb.Outcome)
}
