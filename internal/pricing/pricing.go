// Package pricing computes booking totals. Everything here is pure: no I/O,
// no state, same inputs always produce the same total.
package pricing

import (
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeTotal sums the seat prices and applies the optional discount.
// A flat discount subtracts its amount and floors the result at zero. A
// percent discount scales the sum by (100-amount)/100 and rounds to the
// nearest whole unit. Percent amounts are expected to be within [0, 100];
// resolvers enforce that before a descriptor reaches this function.
func ComputeTotal(seats []domain.Seat, discount *domain.Discount) int64 {
	var total int64
	for _, seat := range seats {
		total += seat.Price
	}

	if discount == nil {
		return total
	}

	switch discount.Kind {
	case domain.DiscountFlat:
		total -= discount.Amount
		if total < 0 {
			total = 0
		}
	case domain.DiscountPercent:
		factor := oneHundred.Sub(decimal.NewFromInt(discount.Amount)).Div(oneHundred)
		total = decimal.NewFromInt(total).Mul(factor).Round(0).IntPart()
	}

	return total
}
