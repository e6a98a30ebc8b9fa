package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rovshanmuradov/perpshield/internal/ledger"
)

// order is one demo position requested on the command line.
type order struct {
	Symbol    string
	Direction ledger.Direction
	Amount    float64
	Leverage  int
	Insured   bool
}

// parseOrders reads a comma separated list of SYMBOL:DIR:AMOUNT:LEVERAGE[:insured]
// entries, e.g. "BTC:long:1:10:insured,ETH:short:2:5".
func parseOrders(s string) ([]order, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var orders []order
	for _, raw := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(raw), ":")
		if len(parts) < 4 || len(parts) > 5 {
			return nil, fmt.Errorf("invalid order %q: want SYMBOL:DIR:AMOUNT:LEVERAGE[:insured]", raw)
		}

		dir, err := ledger.ParseDirection(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid order %q: %w", raw, err)
		}
		amount, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", raw, err)
		}
		leverage, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid leverage in %q: %w", raw, err)
		}

		o := order{
			Symbol:    strings.ToUpper(strings.TrimSpace(parts[0])),
			Direction: dir,
			Amount:    amount,
			Leverage:  leverage,
		}
		if len(parts) == 5 {
			if !strings.EqualFold(parts[4], "insured") {
				return nil, fmt.Errorf("invalid flag %q in %q", parts[4], raw)
			}
			o.Insured = true
		}
		orders = append(orders, o)
	}
	return orders, nil
}
