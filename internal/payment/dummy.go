package payment

import (
	"context"
	"fmt"
	"net/url"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dummy simulates a hosted payment page that always reports success.
type Dummy struct {
	basePath string
}

func NewDummy(basePath string) *Dummy {
	return &Dummy{basePath: basePath}
}

func (d *Dummy) Name() models.PaymentGateway { return models.GatewayDummy }

func (d *Dummy) Accepts(amount decimal.Decimal) bool { return amount.IsPositive() }

func (d *Dummy) StartPayment(_ context.Context, order *models.Order) (Start, error) {
	q := url.Values{"order_id": {order.ID}}
	return Start{RedirectURL: d.basePath + "/checkout/dummy-payment?" + q.Encode()}, nil
}

// CallbackURL is where the simulated payment page sends the customer back to.
// It returns the URL and the reference id it minted.
func (d *Dummy) CallbackURL(orderID string) (string, string) {
	ref := "dummy|" + uuid.New().String()
	q := url.Values{
		"order_id":       {orderID},
		"payment_status": {string(models.PaymentStatusPaid)},
		"reference_id":   {ref},
	}
	return fmt.Sprintf("%s/checkout/callback/%s?%s", d.basePath, d.Name(), q.Encode()), ref
}

func (d *Dummy) ParseCallback(params map[string]string) (Callback, error) {
	orderID := params["order_id"]
	if orderID == "" {
		return Callback{}, fmt.Errorf("%w: order_id is required", ErrInvalidCallback)
	}
	outcome, err := ParseOutcome(params["payment_status"])
	if err != nil {
		return Callback{}, err
	}
	return Callback{OrderID: orderID, Outcome: outcome, ReferenceID: params["reference_id"]}, nil
}
