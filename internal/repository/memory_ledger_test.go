package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(id, userID, seatID string) domain.Booking {
	return domain.Booking{
		ID:          id,
		UserID:      userID,
		TheatreID:   "odl-downtown",
		TheatreName: "ODL Downtown",
		MovieID:     "mv-1",
		MovieTitle:  "The Long Goodbye",
		Date:        "2026-09-01",
		Showtime:    "10:00 AM",
		Seats: []domain.Seat{
			{ID: seatID, Row: "A", Number: 1, Class: domain.SeatStandard, Price: 150},
		},
		TotalPrice: 150,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestMemoryLedgerConditionalAppend(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	err := ledger.Append(ctx, newBooking("b1", "user-1", "A1"))
	require.NoError(t, err)

	err = ledger.Append(ctx, newBooking("b2", "user-2", "A1"))
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyReserved)

	all, err := ledger.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryLedgerAppendIsAllOrNothing(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, newBooking("b1", "user-1", "A1")))

	overlapping := newBooking("b2", "user-2", "B1")
	overlapping.Seats = append(overlapping.Seats, domain.Seat{ID: "A1", Row: "A", Number: 1, Class: domain.SeatStandard, Price: 150})

	err := ledger.Append(ctx, overlapping)
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyReserved)

	// B1 must not have been written by the failed append.
	bookings, err := ledger.ListByShow(ctx, overlapping.Key())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "b1", bookings[0].ID)
}

func TestMemoryLedgerSeparatesShows(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, newBooking("b1", "user-1", "A1")))

	other := newBooking("b2", "user-2", "A1")
	other.Showtime = "7:30 PM"
	require.NoError(t, ledger.Append(ctx, other))

	bookings, err := ledger.ListByShow(ctx, other.Key())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "b2", bookings[0].ID)
}

func TestMemoryLedgerConcurrentAppendsSerialize(t *testing.T) {
	ledger := NewMemoryLedgerRepository()

	const contenders = 32

	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newBooking(fmt.Sprintf("b%d", i), fmt.Sprintf("user-%d", i), "A1")
			errs[i] = ledger.Append(context.Background(), b)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrSeatAlreadyReserved)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMemoryLedgerGetByID(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, newBooking("b1", "user-1", "A1")))

	booking, err := ledger.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", booking.UserID)

	_, err = ledger.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestMemoryLedgerListByUserPagination(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	seatIds := []string{"A1", "A2", "B1", "B2", "C1"}
	base := time.Now().UTC()

	for i, seatId := range seatIds {
		b := newBooking(fmt.Sprintf("b%d", i), "user-1", seatId)
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, ledger.Append(ctx, b))
	}

	summaries, metadata, err := ledger.ListByUser(ctx, "user-1", domain.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	// Newest first.
	assert.Equal(t, "b4", summaries[0].ID)
	assert.Equal(t, "b3", summaries[1].ID)

	assert.Equal(t, 5, metadata.TotalRecords)
	assert.Equal(t, 3, metadata.LastPage)

	summaries, _, err = ledger.ListByUser(ctx, "user-1", domain.Pagination{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "b0", summaries[0].ID)

	summaries, metadata, err = ledger.ListByUser(ctx, "someone-else", domain.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Equal(t, 0, metadata.TotalRecords)
}
