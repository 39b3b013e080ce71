// Package seatmap turns a declarative venue layout into the canonical ordered
// seat sequence. Generation is pure and deterministic: the same layout always
// yields the same seats in the same order.
package seatmap

import (
	"fmt"
	"math"

	"github.com/odlcinemas/booking-ledger/internal/domain"
)

// Generate produces the venue's seats row by row, column by column. Row labels
// are sequential letters starting at 'A'; seat numbers are 1-indexed columns.
// The layout's rule table is evaluated in order and the first matching rule
// assigns the class; unmatched positions are standard. An invalid layout
// (non-positive rows or cols) yields nil.
func Generate(layout domain.Layout) []domain.Seat {
	if layout.Rows < 1 || layout.Cols < 1 {
		return nil
	}

	seats := make([]domain.Seat, 0, layout.Rows*layout.Cols)

	for row := 0; row < layout.Rows; row++ {
		label := rowLabel(row)

		for col := 0; col < layout.Cols; col++ {
			class := classify(layout, row, col)

			seats = append(seats, domain.Seat{
				ID:     fmt.Sprintf("%s%d", label, col+1),
				Row:    label,
				Number: col + 1,
				Class:  class,
				Price:  priceFor(layout, class),
			})
		}
	}

	return seats
}

// Index builds a lookup from seat id to seat for membership checks.
func Index(seats []domain.Seat) map[string]domain.Seat {
	index := make(map[string]domain.Seat, len(seats))
	for _, s := range seats {
		index[s.ID] = s
	}

	return index
}

func classify(layout domain.Layout, row, col int) domain.SeatClass {
	for _, rule := range layout.Rules {
		if rule.Rows.Matches(row, layout.Rows) && rule.Cols.Matches(col, layout.Cols) {
			return rule.Class
		}
	}

	return domain.SeatStandard
}

func priceFor(layout domain.Layout, class domain.SeatClass) int64 {
	base, ok := layout.BasePrices[class]
	if !ok {
		base = layout.BasePrices[domain.SeatStandard]
	}

	multiplier, ok := layout.Multipliers[class]
	if !ok {
		multiplier = 1
	}

	return int64(math.Round(float64(base) * multiplier))
}

// rowLabel yields A..Z, then AA, AB, ... for venues deeper than 26 rows.
func rowLabel(row int) string {
	label := ""
	for row >= 0 {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
	}

	return label
}

// DefaultLayout is the canonical ODL venue: 10 rows by 12 columns, VIP
// recliners on the front corners, the first two rows premium, the first two
// seats of the last row reserved for wheelchair users, aisle seats on the
// extreme columns, everything else standard.
func DefaultLayout() domain.Layout {
	return domain.Layout{
		Rows: 10,
		Cols: 12,
		Rules: []domain.ClassRule{
			{Class: domain.SeatVIP, Rows: domain.Selector{In: []int{0}}, Cols: domain.Selector{Edges: true}},
			{Class: domain.SeatPremium, Rows: domain.Selector{First: 2}},
			{Class: domain.SeatWheelchair, Rows: domain.Selector{Last: 1}, Cols: domain.Selector{First: 2}},
			{Class: domain.SeatAisle, Cols: domain.Selector{Edges: true}},
		},
		BasePrices: map[domain.SeatClass]int64{
			domain.SeatStandard: 150,
			domain.SeatPremium:  250,
		},
		Multipliers: map[domain.SeatClass]float64{
			domain.SeatVIP:        2.0,
			domain.SeatWheelchair: 0.8,
		},
	}
}
