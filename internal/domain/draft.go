package domain

import (
	"time"

	"github.com/google/uuid"
)

// Draft is an advisory, session-owned seat selection backed by TTL'd holds.
// It carries no durability guarantee and is never consulted by the commit
// path's authoritative validation; it only exists so the seat-map view can
// show other users which seats are tentatively taken.
type Draft struct {
	ID         string    `json:"-"`
	Key        ShowKey   `json:"key"`
	Seats      []Seat    `json:"seats"`
	TotalPrice int64     `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewDraft(key ShowKey, seats []Seat) Draft {
	var total int64
	for _, s := range seats {
		total += s.Price
	}

	return Draft{
		ID:         uuid.New().String(),
		Key:        key,
		Seats:      seats,
		TotalPrice: total,
		CreatedAt:  time.Now().UTC(),
	}
}
