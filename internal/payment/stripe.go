package payment

import (
	"context"
	"fmt"
	"net/url"

	"tokoshop/internal/models"

	"github.com/shopspring/decimal"
)

// Stripe is a placeholder for a hosted-checkout provider. It produces the
// redirect and parses the provider's return parameters, but performs no
// signature verification or API calls.
type Stripe struct {
	basePath string
}

func NewStripe(basePath string) *Stripe {
	return &Stripe{basePath: basePath}
}

func (s *Stripe) Name() models.PaymentGateway { return models.GatewayStripe }

func (s *Stripe) Accepts(amount decimal.Decimal) bool { return amount.IsPositive() }

func (s *Stripe) StartPayment(_ context.Context, order *models.Order) (Start, error) {
	q := url.Values{"order_id": {order.ID}}
	return Start{RedirectURL: s.basePath + "/checkout/stripe-payment?" + q.Encode()}, nil
}

func (s *Stripe) ParseCallback(params map[string]string) (Callback, error) {
	orderID := params["client_reference_id"]
	if orderID == "" {
		return Callback{}, fmt.Errorf("%w: client_reference_id is required", ErrInvalidCallback)
	}
	outcome := models.PaymentStatusFailed
	if params["payment_status"] == "paid" {
		outcome = models.PaymentStatusPaid
	}
	return Callback{OrderID: orderID, Outcome: outcome, ReferenceID: params["session_id"]}, nil
}
