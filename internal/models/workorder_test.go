package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusInProgress, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusInProgress, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestWorkOrder_Remaining(t *testing.T) {
	order := WorkOrder{Cost: 1000, AmountPaid: 400}
	assert.Equal(t, float64(600), order.Remaining())

	order.AmountPaid = 1000
	assert.Equal(t, float64(0), order.Remaining())

	// Остаток не бывает отрицательным даже при рассинхроне данных.
	order.AmountPaid = 1200
	assert.Equal(t, float64(0), order.Remaining())
}

func TestWorkOrder_JSONCarriesRemaining(t *testing.T) {
	order := WorkOrder{Cost: 100, AmountPaid: 60}

	raw, err := json.Marshal(&order)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(40), decoded["remaining"])

	// Элементы срезов тоже сериализуются с остатком.
	rawList, err := json.Marshal([]WorkOrder{order})
	assert.NoError(t, err)

	var decodedList []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rawList, &decodedList))
	assert.Equal(t, float64(40), decodedList[0]["remaining"])
}

func TestWorkOrder_IsTerminal(t *testing.T) {
	assert.False(t, (&WorkOrder{Status: OrderStatusPending}).IsTerminal())
	assert.False(t, (&WorkOrder{Status: OrderStatusInProgress}).IsTerminal())
	assert.True(t, (&WorkOrder{Status: OrderStatusCompleted}).IsTerminal())
	assert.True(t, (&WorkOrder{Status: OrderStatusCancelled}).IsTerminal())
}
