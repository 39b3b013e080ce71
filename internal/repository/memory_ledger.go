package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/odlcinemas/booking-ledger/internal/domain"
)

// MemoryLedgerRepository is a mutex-guarded in-memory ledger with the same
// conditional-append contract as the Postgres implementation. It exists for
// tests and single-process deployments; the mutex serializes appends, which
// is what makes the contract hold.
type MemoryLedgerRepository struct {
	mu       sync.Mutex
	bookings []domain.Booking
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{}
}

func (m *MemoryLedgerRepository) Append(ctx context.Context, booking domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := booking.Key()

	taken := make(map[string]struct{})
	for _, b := range m.bookings {
		if b.Key() != key {
			continue
		}
		for _, s := range b.Seats {
			taken[s.ID] = struct{}{}
		}
	}

	for _, s := range booking.Seats {
		if _, ok := taken[s.ID]; ok {
			return domain.ErrSeatAlreadyReserved
		}
	}

	m.bookings = append(m.bookings, booking)

	return nil
}

func (m *MemoryLedgerRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Booking, len(m.bookings))
	copy(out, m.bookings)

	return out, nil
}

func (m *MemoryLedgerRepository) ListByShow(ctx context.Context, key domain.ShowKey) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range m.bookings {
		if b.Key() == key {
			out = append(out, b)
		}
	}

	return out, nil
}

func (m *MemoryLedgerRepository) ListByUser(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			matched = append(matched, b)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	start := pagination.Offset()
	if start > total {
		start = total
	}
	end := start + pagination.Limit()
	if end > total {
		end = total
	}

	summaries := make([]domain.BookingSummary, 0, end-start)
	for _, b := range matched[start:end] {
		summaries = append(summaries, domain.BookingSummary{
			ID:          b.ID,
			MovieTitle:  b.MovieTitle,
			TheatreName: b.TheatreName,
			Date:        b.Date,
			Showtime:    b.Showtime,
			SeatCount:   len(b.Seats),
			TotalPrice:  b.TotalPrice,
			CreatedAt:   b.CreatedAt,
		})
	}

	return summaries, domain.NewMetadata(total, pagination.Page, pagination.PageSize), nil
}

func (m *MemoryLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.bookings {
		if b.ID == id {
			booking := b
			return &booking, nil
		}
	}

	return nil, domain.ErrRecordNotFound
}
