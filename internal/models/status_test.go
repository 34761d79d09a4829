package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	legal := map[OrderStatus][]OrderStatus{
		OrderStatusPendingPayment: {OrderStatusProcessing, OrderStatusCancelled},
		OrderStatusProcessing:     {OrderStatusDelivering, OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusDelivering:     {OrderStatusCompleted, OrderStatusCancelled},
	}
	for _, from := range AllOrderStatuses() {
		for _, to := range AllOrderStatuses() {
			want := contains(legal[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusDelivering.Terminal())
}

func TestShippingStatusTransitions(t *testing.T) {
	legal := map[ShippingStatus][]ShippingStatus{
		ShippingStatusPending:       {ShippingStatusPendingPickup, ShippingStatusCancelled},
		ShippingStatusPendingPickup: {ShippingStatusShipped, ShippingStatusCancelled},
		ShippingStatusShipped:       {ShippingStatusDelivered, ShippingStatusCancelled},
	}
	for _, from := range AllShippingStatuses() {
		for _, to := range AllShippingStatuses() {
			want := contains(legal[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	legal := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending: {PaymentStatusPaid, PaymentStatusExpired, PaymentStatusFailed},
		PaymentStatusPaid:    {PaymentStatusRefunded},
	}
	for _, from := range AllPaymentStatuses() {
		for _, to := range AllPaymentStatuses() {
			want := contains(legal[from], to)
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestUnknownStatusHasNoSuccessors(t *testing.T) {
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("shipped").CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusPendingPayment.CanTransitionTo("bogus"))
}

func TestDrivenOrderStatus(t *testing.T) {
	tests := []struct {
		shipping ShippingStatus
		order    OrderStatus
		ok       bool
	}{
		{ShippingStatusShipped, OrderStatusDelivering, true},
		{ShippingStatusDelivered, OrderStatusCompleted, true},
		{ShippingStatusCancelled, OrderStatusCancelled, true},
		{ShippingStatusPendingPickup, "", false},
		{ShippingStatusPending, "", false},
	}
	for _, tt := range tests {
		got, ok := tt.shipping.DrivenOrderStatus()
		assert.Equal(t, tt.ok, ok, tt.shipping)
		assert.Equal(t, tt.order, got, tt.shipping)
	}
}

func contains[S comparable](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
