package payment

import (
	"context"
	"fmt"

	"tokoshop/internal/models"

	"github.com/shopspring/decimal"
)

// Free settles zero-value orders immediately.
type Free struct {
	basePath string
}

func NewFree(basePath string) *Free {
	return &Free{basePath: basePath}
}

func (f *Free) Name() models.PaymentGateway { return models.GatewayFree }

func (f *Free) Accepts(amount decimal.Decimal) bool { return amount.IsZero() }

// StartPayment sends the customer straight to the order confirmation.
func (f *Free) StartPayment(_ context.Context, order *models.Order) (Start, error) {
	return Start{
		RedirectURL: fmt.Sprintf("%s/orders/%s", f.basePath, order.ID),
		Settled:     true,
	}, nil
}

func (f *Free) ParseCallback(map[string]string) (Callback, error) {
	return Callback{}, fmt.Errorf("%w: free gateway has no callback", ErrInvalidCallback)
}
