// Package reservation implements the seat reservation engine: computing the
// authoritative booked-seat set for a show, validating proposed selections
// against it, and committing bookings to the ledger.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/odlcinemas/booking-ledger/internal/pricing"
	"github.com/odlcinemas/booking-ledger/internal/seatmap"
)

// maxCommitAttempts bounds the validate-then-append retry loop when the store
// reports an optimistic-concurrency conflict.
const maxCommitAttempts = 3

type Engine struct {
	ledger  domain.LedgerRepository
	catalog domain.CatalogRepository
	logger  *slog.Logger
}

func NewEngine(ledger domain.LedgerRepository, catalog domain.CatalogRepository, logger *slog.Logger) *Engine {
	return &Engine{
		ledger:  ledger,
		catalog: catalog,
		logger:  logger,
	}
}

// CommitRequest carries everything needed to turn a validated selection into
// a booking. UserID is an opaque identity supplied by the caller; the engine
// performs no authentication.
type CommitRequest struct {
	Key      domain.ShowKey
	UserID   string
	SeatIDs  []string
	Discount *domain.Discount
}

// BookedSeats returns the sorted union of seat ids across every committed
// booking for the show. The ledger is re-queried on every call: booked-seat
// sets are never cached across requests.
func (e *Engine) BookedSeats(ctx context.Context, key domain.ShowKey) ([]string, error) {
	booked, err := e.bookedSet(ctx, key)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(booked))
	for id := range booked {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// ValidateSelection checks a proposed selection against the venue seat map
// and the current ledger state. It rejects empty selections with
// ErrEmptySelection, ids outside the venue map with an UnknownSeatError, and
// overlaps with already-booked seats with a SeatConflictError listing exactly
// the overlapping ids. A nil return means the selection was bookable at the
// moment of the check; only Commit makes that claim authoritative.
func (e *Engine) ValidateSelection(ctx context.Context, key domain.ShowKey, seatIDs []string) error {
	show, err := e.catalog.GetShow(ctx, key)
	if err != nil {
		return err
	}

	_, err = e.validate(ctx, show, seatIDs)

	return err
}

// Commit validates the selection, prices it, and appends the booking to the
// ledger. The store's conditional append is the serialization point: if two
// commits for overlapping seats race past validation, exactly one append
// succeeds and the loser receives a SeatConflictError built from a fresh read
// of the ledger.
//
// A commit that fails with a context deadline has an unknown outcome: the
// booking may or may not have landed. Callers must re-query BookedSeats
// before retrying, never blindly resubmit.
func (e *Engine) Commit(ctx context.Context, req CommitRequest) (*domain.Booking, error) {
	show, err := e.catalog.GetShow(ctx, req.Key)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		seats, err := e.validate(ctx, show, req.SeatIDs)
		if err != nil {
			return nil, err
		}

		booking := domain.Booking{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			TheatreID:   req.Key.TheatreID,
			TheatreName: show.TheatreName,
			MovieID:     req.Key.MovieID,
			MovieTitle:  show.MovieTitle,
			Date:        req.Key.Date,
			Showtime:    req.Key.Showtime,
			Seats:       seats,
			TotalPrice:  pricing.ComputeTotal(seats, req.Discount),
			CreatedAt:   time.Now().UTC(),
		}
		if req.Discount != nil {
			booking.DiscountCode = req.Discount.Code
		}

		err = e.ledger.Append(ctx, booking)
		if err == nil {
			return &booking, nil
		}

		switch {
		case errors.Is(err, domain.ErrSeatAlreadyReserved):
			// Lost the race after validation passed. Re-read the ledger so the
			// conflict names exactly the seats that are now taken.
			return nil, e.conflictFor(ctx, req.Key, req.SeatIDs)
		case errors.Is(err, domain.ErrEditConflict) && attempt < maxCommitAttempts:
			e.logger.Warn("ledger append conflicted, revalidating",
				"theatre_id", req.Key.TheatreID, "movie_id", req.Key.MovieID, "attempt", attempt)
			continue
		case errors.Is(err, domain.ErrEditConflict):
			return nil, fmt.Errorf("%w: append retries exhausted", domain.ErrStoreUnavailable)
		default:
			return nil, err
		}
	}
}

// validate resolves the proposed ids against the venue map and the current
// booked set, returning the selection as full seats in request order.
func (e *Engine) validate(ctx context.Context, show *domain.Show, seatIDs []string) ([]domain.Seat, error) {
	proposed := dedupe(seatIDs)
	if len(proposed) == 0 {
		return nil, domain.ErrEmptySelection
	}

	venue := seatmap.Index(seatmap.Generate(show.Layout))

	var unknown []string
	for _, id := range proposed {
		if _, ok := venue[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, &domain.UnknownSeatError{SeatIDs: unknown}
	}

	booked, err := e.bookedSet(ctx, show.Key)
	if err != nil {
		return nil, err
	}

	var conflicting []string
	for _, id := range proposed {
		if _, taken := booked[id]; taken {
			conflicting = append(conflicting, id)
		}
	}
	if len(conflicting) > 0 {
		return nil, &domain.SeatConflictError{SeatIDs: conflicting}
	}

	seats := make([]domain.Seat, len(proposed))
	for i, id := range proposed {
		seats[i] = venue[id]
	}

	return seats, nil
}

func (e *Engine) bookedSet(ctx context.Context, key domain.ShowKey) (map[string]struct{}, error) {
	bookings, err := e.ledger.ListByShow(ctx, key)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]struct{})
	for _, b := range bookings {
		for _, s := range b.Seats {
			booked[s.ID] = struct{}{}
		}
	}

	return booked, nil
}

// conflictFor builds the post-append conflict error from a fresh ledger read.
func (e *Engine) conflictFor(ctx context.Context, key domain.ShowKey, seatIDs []string) error {
	booked, err := e.bookedSet(ctx, key)
	if err != nil {
		// The append already told us there is a conflict; without a fresh read
		// the best precise answer is the whole selection.
		e.logger.Error("failed to re-read ledger after append conflict", "error", err)
		return &domain.SeatConflictError{SeatIDs: dedupe(seatIDs)}
	}

	var conflicting []string
	for _, id := range dedupe(seatIDs) {
		if _, taken := booked[id]; taken {
			conflicting = append(conflicting, id)
		}
	}
	if len(conflicting) == 0 {
		conflicting = dedupe(seatIDs)
	}

	return &domain.SeatConflictError{SeatIDs: conflicting}
}

// dedupe drops duplicate ids while preserving the caller's order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
