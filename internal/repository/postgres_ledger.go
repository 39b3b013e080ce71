package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/odlcinemas/booking-ledger/internal/domain"
)

// PostgresLedgerRepository stores the booking ledger in two tables: bookings
// and booking_seats. The unique index on booking_seats
// (theatre_id, movie_id, show_date, show_time, seat_id) is the structural
// backstop for the no-double-seat invariant: two concurrent appends with an
// overlapping seat cannot both commit.
type PostgresLedgerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresLedgerRepository(db *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{
		db: db,
	}
}

const dateLayout = "2006-01-02"

func (p *PostgresLedgerRepository) Append(ctx context.Context, booking domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings
				(id, user_id, theatre_id, theatre_name, movie_id, movie_title,
				 show_date, show_time, total_price, discount_code, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		_, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.TheatreID,
			booking.TheatreName,
			booking.MovieID,
			booking.MovieTitle,
			booking.Date,
			booking.Showtime,
			booking.TotalPrice,
			booking.DiscountCode,
			booking.CreatedAt,
		)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.Seats))
		for _, seat := range booking.Seats {
			rows = append(rows, []any{
				booking.ID,
				booking.TheatreID,
				booking.MovieID,
				booking.Date,
				booking.Showtime,
				seat.ID,
				seat.Row,
				seat.Number,
				string(seat.Class),
				seat.Price,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{
				"booking_id", "theatre_id", "movie_id", "show_date", "show_time",
				"seat_id", "seat_row", "seat_number", "seat_class", "price",
			},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	return mapStoreError(err)
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

// mapStoreError converts driver errors into the ledger's typed failures.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.ErrSeatAlreadyReserved
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return domain.ErrEditConflict
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (p *PostgresLedgerRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return p.list(ctx, "", nil)
}

func (p *PostgresLedgerRepository) ListByShow(ctx context.Context, key domain.ShowKey) ([]domain.Booking, error) {
	filter := `WHERE b.theatre_id = $1 AND b.movie_id = $2 AND b.show_date = $3 AND b.show_time = $4`

	return p.list(ctx, filter, []any{key.TheatreID, key.MovieID, key.Date, key.Showtime})
}

func (p *PostgresLedgerRepository) list(ctx context.Context, filter string, args []any) ([]domain.Booking, error) {
	query := fmt.Sprintf(`
		SELECT
			b.id, b.user_id, b.theatre_id, b.theatre_name, b.movie_id, b.movie_title,
			b.show_date, b.show_time, b.total_price, b.discount_code, b.created_at,
			s.seat_id, s.seat_row, s.seat_number, s.seat_class, s.price
		FROM bookings b
		JOIN booking_seats s ON s.booking_id = b.id
		%s
		ORDER BY b.created_at, b.id, s.seat_number
	`, filter)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	index := make(map[string]int)

	for rows.Next() {
		var (
			b        domain.Booking
			seat     domain.Seat
			showDate time.Time
			class    string
		)

		err := rows.Scan(
			&b.ID, &b.UserID, &b.TheatreID, &b.TheatreName, &b.MovieID, &b.MovieTitle,
			&showDate, &b.Showtime, &b.TotalPrice, &b.DiscountCode, &b.CreatedAt,
			&seat.ID, &seat.Row, &seat.Number, &class, &seat.Price,
		)
		if err != nil {
			return nil, mapStoreError(err)
		}

		seat.Class = domain.SeatClass(class)

		i, ok := index[b.ID]
		if !ok {
			b.Date = showDate.Format(dateLayout)
			b.Seats = []domain.Seat{seat}
			index[b.ID] = len(bookings)
			bookings = append(bookings, b)
			continue
		}

		bookings[i].Seats = append(bookings[i].Seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, mapStoreError(err)
	}

	return bookings, nil
}

func (p *PostgresLedgerRepository) ListByUser(
	ctx context.Context,
	userID string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			b.movie_title,
			b.theatre_name,
			b.show_date,
			b.show_time,
			(SELECT COUNT(*) FROM booking_seats s WHERE s.booking_id = b.id),
			b.total_price,
			b.created_at
		FROM bookings b
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, mapStoreError(err)
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var (
			summary  domain.BookingSummary
			showDate time.Time
		)

		err := rows.Scan(
			&totalRecords,
			&summary.ID,
			&summary.MovieTitle,
			&summary.TheatreName,
			&showDate,
			&summary.Showtime,
			&summary.SeatCount,
			&summary.TotalPrice,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, nil, mapStoreError(err)
		}

		summary.Date = showDate.Format(dateLayout)
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, mapStoreError(err)
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT
			id, user_id, theatre_id, theatre_name, movie_id, movie_title,
			show_date, show_time, total_price, discount_code, created_at
		FROM bookings
		WHERE id = $1
	`

	var (
		b        domain.Booking
		showDate time.Time
	)

	err := p.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.TheatreID, &b.TheatreName, &b.MovieID, &b.MovieTitle,
		&showDate, &b.Showtime, &b.TotalPrice, &b.DiscountCode, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, mapStoreError(err)
	}

	b.Date = showDate.Format(dateLayout)

	seatsQuery := `
		SELECT seat_id, seat_row, seat_number, seat_class, price
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY seat_number
	`

	rows, err := p.db.Query(ctx, seatsQuery, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seat  domain.Seat
			class string
		)

		err := rows.Scan(&seat.ID, &seat.Row, &seat.Number, &class, &seat.Price)
		if err != nil {
			return nil, mapStoreError(err)
		}

		seat.Class = domain.SeatClass(class)
		b.Seats = append(b.Seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, mapStoreError(err)
	}

	return &b, nil
}
