package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTransitionTo(t *testing.T) {
	expire := time.Now().Add(time.Hour)
	order := &Order{Status: OrderStatusPendingPayment, ExpireDate: &expire}

	err := order.TransitionTo(OrderStatusDelivering)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, OrderStatusPendingPayment, order.Status)
	assert.NotNil(t, order.ExpireDate)

	require.NoError(t, order.TransitionTo(OrderStatusProcessing))
	assert.Equal(t, OrderStatusProcessing, order.Status)
	assert.Nil(t, order.ExpireDate, "leaving pending_payment clears the expiry")
}

func TestPaymentSupersede(t *testing.T) {
	order := &Order{Payments: []Payment{
		{Amount: decimal.NewFromInt(5), Status: PaymentStatusFailed},
		{Amount: decimal.NewFromInt(5), Status: PaymentStatusPending},
	}}

	assert.Equal(t, 1, order.PendingPaymentCount())
	assert.True(t, order.SupersedePendingPayment())
	assert.Equal(t, 0, order.PendingPaymentCount())
	assert.Equal(t, PaymentStatusFailed, order.Payments[0].Status)
	assert.Equal(t, PaymentStatusCancelled, order.Payments[1].Status)
	assert.False(t, order.SupersedePendingPayment())

	// cancelled is reachable only through Supersede.
	p := Payment{Status: PaymentStatusPending}
	assert.Error(t, p.TransitionTo(PaymentStatusCancelled))
}

func TestShippingTransitionTo(t *testing.T) {
	s := NewShipping()
	assert.Equal(t, CarrierAssignPending, s.Carrier)

	require.NoError(t, s.TransitionTo(ShippingStatusPendingPickup))
	require.NoError(t, s.TransitionTo(ShippingStatusShipped))
	err := s.TransitionTo(ShippingStatusPendingPickup)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, ShippingStatusShipped, s.Status)
}

func TestUnreviewedItem(t *testing.T) {
	rid := "r1"
	order := &Order{Items: []OrderItem{
		{ProductID: "a", Quantity: 1, ReviewID: &rid},
		{ProductID: "b", Quantity: 2},
	}}
	assert.Nil(t, order.UnreviewedItem("a"))
	assert.NotNil(t, order.UnreviewedItem("b"))
	assert.Nil(t, order.UnreviewedItem("c"))
}

func TestOrderExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	order := &Order{Status: OrderStatusPendingPayment, ExpireDate: &past}
	assert.True(t, order.Expired(now))
	assert.True(t, order.Expired(past), "expiry is inclusive")

	order.Status = OrderStatusProcessing
	assert.False(t, order.Expired(now))

	order = &Order{Status: OrderStatusPendingPayment}
	assert.False(t, order.Expired(now))
}
