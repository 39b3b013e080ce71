package domain

// SeatClass is the pricing/placement category of a seat within a venue layout.
type SeatClass string

const (
	SeatStandard   SeatClass = "standard"
	SeatPremium    SeatClass = "premium"
	SeatVIP        SeatClass = "vip"
	SeatWheelchair SeatClass = "wheelchair"
	SeatAisle      SeatClass = "aisle"
)

// Seat is one physical seat in a venue layout. Seats are generated once per
// layout and never mutated: the same seat id always maps to the same class and
// price for a given venue. Prices are whole, minor-currency-free units.
type Seat struct {
	ID     string    `json:"id"`
	Row    string    `json:"row"`
	Number int       `json:"number"`
	Class  SeatClass `json:"class"`
	Price  int64     `json:"price"`
}

// Layout describes how a venue's seat map is generated: the grid dimensions,
// an ordered class-rule table (first match wins, standard is the fallback),
// base prices per class and price multipliers per class. It is plain data so
// venue configurations can live in the catalog store.
type Layout struct {
	Rows        int                 `json:"rows"`
	Cols        int                 `json:"cols"`
	Rules       []ClassRule         `json:"rules,omitempty"`
	BasePrices  map[SeatClass]int64 `json:"basePrices"`
	Multipliers map[SeatClass]float64 `json:"multipliers,omitempty"`
}

// ClassRule assigns a seat class to every position matched by both selectors.
type ClassRule struct {
	Class SeatClass `json:"class"`
	Rows  Selector  `json:"rows,omitempty"`
	Cols  Selector  `json:"cols,omitempty"`
}

// Selector matches row or column indices (0-based). The zero value matches
// every index. The fields are OR'ed together.
type Selector struct {
	In    []int `json:"in,omitempty"`    // explicit indices
	First int   `json:"first,omitempty"` // the first N indices
	Last  int   `json:"last,omitempty"`  // the last N indices
	Edges bool  `json:"edges,omitempty"` // index 0 and index n-1
}

// Matches reports whether index i is selected out of n positions.
func (s Selector) Matches(i, n int) bool {
	if len(s.In) == 0 && s.First == 0 && s.Last == 0 && !s.Edges {
		return true
	}

	for _, v := range s.In {
		if v == i {
			return true
		}
	}

	if s.First > 0 && i < s.First {
		return true
	}
	if s.Last > 0 && i >= n-s.Last {
		return true
	}
	if s.Edges && (i == 0 || i == n-1) {
		return true
	}

	return false
}
