package domain

import (
	"context"
	"time"
)

// Booking is one confirmed purchase. It is immutable once created and never
// deleted; the union of seats across all bookings with the same ShowKey is the
// authoritative booked-seat set for that show. Theatre and movie names are
// denormalized catalog snapshots taken at commit time.
type Booking struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TheatreID    string    `json:"theatreId"`
	TheatreName  string    `json:"theatreName"`
	MovieID      string    `json:"movieId"`
	MovieTitle   string    `json:"movieTitle"`
	Date         string    `json:"date"`
	Showtime     string    `json:"showtime"`
	Seats        []Seat    `json:"seats"`
	TotalPrice   int64     `json:"totalPrice"`
	DiscountCode string    `json:"discountCode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Key returns the show this booking's seats are held against.
func (b Booking) Key() ShowKey {
	return ShowKey{
		TheatreID: b.TheatreID,
		MovieID:   b.MovieID,
		Date:      b.Date,
		Showtime:  b.Showtime,
	}
}

// BookingSummary is the listing projection for a user's booking history.
type BookingSummary struct {
	ID          string
	MovieTitle  string
	TheatreName string
	Date        string
	Showtime    string
	SeatCount   int
	TotalPrice  int64
	CreatedAt   time.Time
}

// LedgerRepository is the durable booking ledger, the single source of truth
// for which seats are taken.
//
// Append is a conditional append: the booking is persisted only if none of its
// seats are already recorded for the same ShowKey, otherwise it fails with
// ErrSeatAlreadyReserved and nothing is written. Concurrent appends serialize
// against each other; a successful Append can therefore never have landed a
// seat that another completed Append already holds.
type LedgerRepository interface {
	Append(ctx context.Context, booking Booking) error
	ListAll(ctx context.Context) ([]Booking, error)
	ListByShow(ctx context.Context, key ShowKey) ([]Booking, error)
	ListByUser(ctx context.Context, userID string, pagination Pagination) ([]BookingSummary, *Metadata, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
}
