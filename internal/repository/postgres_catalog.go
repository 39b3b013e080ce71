package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/odlcinemas/booking-ledger/internal/domain"
)

// PostgresCatalogRepository resolves show keys against the venue catalog.
// The catalog is read-only from this service's perspective; rows are seeded
// by an external admin process.
type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetShow(ctx context.Context, key domain.ShowKey) (*domain.Show, error) {
	query := `
		SELECT t.name, t.location, t.layout, m.title, m.genre
		FROM shows s
		JOIN theatres t ON t.id = s.theatre_id
		JOIN movies m ON m.id = s.movie_id
		WHERE s.theatre_id = $1 AND s.movie_id = $2 AND s.show_date = $3 AND s.show_time = $4
	`

	show := domain.Show{Key: key}

	err := p.db.QueryRow(ctx, query, key.TheatreID, key.MovieID, key.Date, key.Showtime).Scan(
		&show.TheatreName,
		&show.Location,
		&show.Layout,
		&show.MovieTitle,
		&show.Genre,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, mapStoreError(err)
	}

	return &show, nil
}
