package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when a status change is not in the legal graph.
var ErrInvalidTransition = errors.New("invalid status transition")

// PaymentGateway identifies a payment provider.
type PaymentGateway string

const (
	GatewayDummy  PaymentGateway = "dummy_gateway"
	GatewayFree   PaymentGateway = "free"
	GatewayStripe PaymentGateway = "stripe"
)

// ShippingCarrier identifies who delivers an order.
type ShippingCarrier string

const (
	CarrierAssignPending  ShippingCarrier = "assign_pending"
	CarrierManual         ShippingCarrier = "manual"
	CarrierSFExpress      ShippingCarrier = "sf_express"
	CarrierDHL            ShippingCarrier = "dhl"
	CarrierKerryLogistics ShippingCarrier = "kerry_logistics"
	CarrierMECHK          ShippingCarrier = "mechk" // Morning Express
)

// Valid reports whether c is a known carrier.
func (c ShippingCarrier) Valid() bool {
	switch c {
	case CarrierAssignPending, CarrierManual, CarrierSFExpress, CarrierDHL, CarrierKerryLogistics, CarrierMECHK:
		return true
	}
	return false
}

// OrderItem represents a purchased line. Quantity is frozen at checkout;
// ReviewID is set once when the line is reviewed and never cleared.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	ReviewID  *string `json:"review_id,omitempty"`
}

// Payment is one attempt at collecting the order total.
type Payment struct {
	Amount      decimal.Decimal   `json:"amount"`
	Gateway     PaymentGateway    `json:"gateway"`
	ReferenceID *string           `json:"reference_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Status      PaymentStatus     `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TransitionTo moves the attempt to next if the payment graph allows it.
func (p *Payment) TransitionTo(next PaymentStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

// Supersede cancels a pending attempt. It is the only way an attempt becomes cancelled.
func (p *Payment) Supersede() bool {
	if p.Status != PaymentStatusPending {
		return false
	}
	p.Status = PaymentStatusCancelled
	return true
}

// Shipping is the delivery sub-state embedded in an order.
type Shipping struct {
	Carrier        ShippingCarrier `json:"shipping_carrier" gorm:"type:varchar(32);default:assign_pending"`
	TrackingNumber *string         `json:"tracking_number,omitempty"`
	Status         ShippingStatus  `json:"status" gorm:"type:varchar(32);default:pending"`
}

// NewShipping returns the shipping state of a freshly created order.
func NewShipping() Shipping {
	return Shipping{Carrier: CarrierAssignPending, Status: ShippingStatusPending}
}

// TransitionTo moves the shipment to next if the shipping graph allows it.
func (s *Shipping) TransitionTo(next ShippingStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: shipping %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	return nil
}

// Order is the immutable-contents purchase record created from a cart.
// Its ID is the ID of the cart it was created from.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `json:"user_id" gorm:"index;type:varchar(36)"`
	AddressID   string          `json:"address_id" gorm:"type:varchar(36)"`
	Items       []OrderItem     `json:"items" gorm:"serializer:json"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2)"`
	Payments    []Payment       `json:"payments" gorm:"serializer:json"`
	Shipping    Shipping        `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	Status      OrderStatus     `json:"status" gorm:"index;type:varchar(32)"`
	ExpireDate  *time.Time      `json:"expire_date,omitempty" gorm:"index"`
	Version     int64           `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TransitionTo moves the order to next if the order graph allows it.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	if next != OrderStatusPendingPayment {
		o.ExpireDate = nil
	}
	return nil
}

// LatestPayment returns the most recent payment attempt, or nil.
func (o *Order) LatestPayment() *Payment {
	if len(o.Payments) == 0 {
		return nil
	}
	return &o.Payments[len(o.Payments)-1]
}

// SupersedePendingPayment cancels any pending attempt so a new one can be appended.
func (o *Order) SupersedePendingPayment() bool {
	superseded := false
	for i := range o.Payments {
		if o.Payments[i].Supersede() {
			superseded = true
		}
	}
	return superseded
}

// PendingPaymentCount returns how many attempts are currently pending.
func (o *Order) PendingPaymentCount() int {
	n := 0
	for _, p := range o.Payments {
		if p.Status == PaymentStatusPending {
			n++
		}
	}
	return n
}

// UnreviewedItem returns the first line for productID that has no review yet.
func (o *Order) UnreviewedItem(productID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID && o.Items[i].ReviewID == nil {
			return &o.Items[i]
		}
	}
	return nil
}

// Expired reports whether an unpaid order is past its payment window.
func (o *Order) Expired(now time.Time) bool {
	return o.Status == OrderStatusPendingPayment && o.ExpireDate != nil && !now.Before(*o.ExpireDate)
}
