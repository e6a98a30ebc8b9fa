package main

import (
	"testing"

	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrders(t *testing.T) {
	orders, err := parseOrders("btc:long:1:10:insured, ETH:SHORT:2.5:5")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, order{Symbol: "BTC", Direction: ledger.Long, Amount: 1, Leverage: 10, Insured: true}, orders[0])
	assert.Equal(t, order{Symbol: "ETH", Direction: ledger.Short, Amount: 2.5, Leverage: 5}, orders[1])

	orders, err = parseOrders("  ")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestParseOrdersRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few parts", "BTC:long:1"},
		{"bad direction", "BTC:up:1:2"},
		{"bad amount", "BTC:long:one:2"},
		{"bad leverage", "BTC:long:1:x"},
		{"bad flag", "BTC:long:1:2:hedged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOrders(tt.input)
			assert.Error(t, err)
		})
	}
}
