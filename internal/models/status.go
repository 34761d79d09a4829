package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// ShippingStatus is the delivery state of an order's shipment.
type ShippingStatus string

const (
	ShippingStatusPending       ShippingStatus = "pending"
	ShippingStatusPendingPickup ShippingStatus = "pending_pickup"
	ShippingStatusShipped       ShippingStatus = "shipped"
	ShippingStatusDelivered     ShippingStatus = "delivered"
	ShippingStatusCancelled     ShippingStatus = "cancelled"
)

// orderTransitions lists the statuses reachable from each order status.
// Statuses with an empty set are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusDelivering, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusDelivering:     {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:      {},
	OrderStatusCancelled:      {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed},
	PaymentStatusPaid:      {PaymentStatusRefunded},
	PaymentStatusExpired:   {},
	PaymentStatusRefunded:  {},
	PaymentStatusFailed:    {},
	PaymentStatusCancelled: {},
}

var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingStatusPending:       {ShippingStatusPendingPickup, ShippingStatusCancelled},
	ShippingStatusPendingPickup: {ShippingStatusShipped, ShippingStatusCancelled},
	ShippingStatusShipped:       {ShippingStatusDelivered, ShippingStatusCancelled},
	ShippingStatusDelivered:     {},
	ShippingStatusCancelled:     {},
}

// canTransition reports whether to is a legal successor of from in table.
// Unknown statuses have no successors, and self-loops are never legal.
func canTransition[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isKnown[S comparable](table map[S][]S, s S) bool {
	_, ok := table[s]
	return ok
}

// CanTransitionTo reports whether the order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return canTransition(orderTransitions, s, next)
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool { return isKnown(orderTransitions, s) }

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool { return len(orderTransitions[s]) == 0 }

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return canTransition(paymentTransitions, s, next)
}

func (s PaymentStatus) Valid() bool { return isKnown(paymentTransitions, s) }

func (s ShippingStatus) CanTransitionTo(next ShippingStatus) bool {
	return canTransition(shippingTransitions, s, next)
}

func (s ShippingStatus) Valid() bool { return isKnown(shippingTransitions, s) }

// DrivenOrderStatus returns the order status implied by reaching s, if any.
func (s ShippingStatus) DrivenOrderStatus() (OrderStatus, bool) {
	switch s {
	case ShippingStatusShipped:
		return OrderStatusDelivering, true
	case ShippingStatusDelivered:
		return OrderStatusCompleted, true
	case ShippingStatusCancelled:
		return OrderStatusCancelled, true
	}
	return "", false
}

// AllOrderStatuses returns every order status in declaration order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPendingPayment,
		OrderStatusProcessing,
		OrderStatusDelivering,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

// AllShippingStatuses returns every shipping status in declaration order.
func AllShippingStatuses() []ShippingStatus {
	return []ShippingStatus{
		ShippingStatusPending,
		ShippingStatusPendingPickup,
		ShippingStatusShipped,
		ShippingStatusDelivered,
		ShippingStatusCancelled,
	}
}

// AllPaymentStatuses returns every payment status in declaration order.
func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusExpired,
		PaymentStatusRefunded,
		PaymentStatusFailed,
		PaymentStatusCancelled,
	}
}
