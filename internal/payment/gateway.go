// Package payment holds the payment gateway adapters used by checkout.
//
// Each gateway turns a freshly created payment attempt into a redirect target
// and, for gateways that settle out of band, parses the callback that later
// reports the outcome.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tokoshop/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownGateway is returned for a gateway that is not registered.
	ErrUnknownGateway = errors.New("unknown payment gateway")
	// ErrInvalidCallback is returned when callback parameters cannot be parsed.
	ErrInvalidCallback = errors.New("invalid payment callback")
)

// Start is the result of starting a payment.
type Start struct {
	RedirectURL string
	// Settled means the gateway collected the payment synchronously and no
	// callback will follow.
	Settled bool
}

// Callback is a gateway's out-of-band report of a payment outcome.
type Callback struct {
	OrderID     string
	Outcome     models.PaymentStatus
	ReferenceID string
}

// Gateway is implemented once per payment provider.
type Gateway interface {
	Name() models.PaymentGateway
	// Accepts reports whether the gateway can collect amount.
	Accepts(amount decimal.Decimal) bool
	StartPayment(ctx context.Context, order *models.Order) (Start, error)
	ParseCallback(params map[string]string) (Callback, error)
}

// Simulator is implemented by gateways whose hosted page is simulated
// locally. CallbackURL returns where the page sends the customer back to,
// along with the reference id it minted.
type Simulator interface {
	CallbackURL(orderID string) (string, string)
}

// Registry looks gateways up by name.
type Registry struct {
	gateways map[models.PaymentGateway]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[models.PaymentGateway]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Get returns the gateway registered under name.
func (r *Registry) Get(name models.PaymentGateway) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
	}
	return g, nil
}

// Accepting returns the names of gateways able to collect amount, sorted.
func (r *Registry) Accepting(amount decimal.Decimal) []models.PaymentGateway {
	names := make([]models.PaymentGateway, 0, len(r.gateways))
	for name, g := range r.gateways {
		if g.Accepts(amount) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ParseOutcome maps a callback status to the outcome recorded on the attempt.
// Anything other than paid counts as a failed attempt.
func ParseOutcome(raw string) (models.PaymentStatus, error) {
	status := models.PaymentStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("%w: payment_status %q", ErrInvalidCallback, raw)
	}
	if status == models.PaymentStatusPaid {
		return models.PaymentStatusPaid, nil
	}
	return models.PaymentStatusFailed, nil
}

// Build registers the named gateways, rooting their redirect URLs at basePath.
func Build(basePath string, names []string) (*Registry, error) {
	gateways := make([]Gateway, 0, len(names))
	for _, name := range names {
		switch models.PaymentGateway(name) {
		case models.GatewayFree:
			gateways = append(gateways, NewFree(basePath))
		case models.GatewayDummy:
			gateways = append(gateways, NewDummy(basePath))
		case models.GatewayStripe:
			gateways = append(gateways, NewStripe(basePath))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
		}
	}
	return NewRegistry(gateways...), nil
}
