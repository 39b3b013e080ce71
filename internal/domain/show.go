package domain

import "context"

// ShowKey identifies one scheduled screening. Bookings with equal ShowKeys
// compete for the same seat inventory; different keys are fully independent.
// Date is an ISO date (2006-01-02) and Showtime the venue's display time
// (e.g. "10:00 AM"), both kept as opaque strings so key equality is exact
// field equality.
type ShowKey struct {
	TheatreID string `json:"theatreId"`
	MovieID   string `json:"movieId"`
	Date      string `json:"date"`
	Showtime  string `json:"showtime"`
}

// Show is the catalog's descriptive record for a screening, including the
// venue layout the seat map is generated from.
type Show struct {
	Key         ShowKey
	TheatreName string
	Location    string
	MovieTitle  string
	Genre       string
	Layout      Layout
}

// CatalogRepository resolves show identifiers to descriptive records and seat
// pricing metadata. Read-only from this service's perspective.
type CatalogRepository interface {
	GetShow(ctx context.Context, key ShowKey) (*Show, error)
}
