package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_ComputesTotalsFromValidatedPrices(t *testing.T) {
	order, err := NewOrder([]OrderItem{
		{ProductID: "P1", Quantity: 2, Price: 10},
		{ProductID: "P2", Quantity: 1, Price: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 25.0, order.TotalAmount)
	assert.Equal(t, 3, order.TotalItems)
	assert.Equal(t, StatusPending, order.Status)
	assert.False(t, order.Paid)
	assert.Nil(t, order.PaidAt)
	assert.Nil(t, order.Receipt)
	assert.NotEmpty(t, order.ID)
	assert.Len(t, order.Items, 2)
}

func TestNewOrder_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
	}{
		{name: "no items", items: nil},
		{name: "zero quantity", items: []OrderItem{{ProductID: "P1", Quantity: 0, Price: 10}}},
		{name: "negative quantity", items: []OrderItem{{ProductID: "P1", Quantity: -2, Price: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.items)
			assert.ErrorIs(t, err, ErrNoItems)
		})
	}
}

func TestSettle_TransitionsAtomicallyAndOnlyOnce(t *testing.T) {
	order, err := NewOrder([]OrderItem{{ProductID: "P1", Quantity: 1, Price: 10}})
	require.NoError(t, err)

	at := time.Now()
	require.NoError(t, order.Settle("ch_123", "https://receipts.example.com/1", at))

	assert.Equal(t, StatusPaid, order.Status)
	assert.True(t, order.Paid)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, at, *order.PaidAt)
	assert.Equal(t, "ch_123", order.StripeChargeID)
	require.NotNil(t, order.Receipt)
	assert.Equal(t, "https://receipts.example.com/1", order.Receipt.ReceiptURL)

	// 重复结算必须被拒绝，回执保持第一次的内容
	err = order.Settle("ch_456", "https://receipts.example.com/other", time.Now())
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
	assert.Equal(t, "ch_123", order.StripeChargeID)
	assert.Equal(t, "https://receipts.example.com/1", order.Receipt.ReceiptURL)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "PAID", "DELIVERED", "CANCELLED"} {
		status, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), status)
	}

	_, err := ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("paid")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
