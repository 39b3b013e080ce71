// Package api holds the request and response types of the booking HTTP API.
// The surface is small and fixed, so the types are hand-maintained rather
// than generated.
package api

import "time"

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ConflictResponse reports a rejected commit or validation together with
// exactly the seats that are no longer available, so the UI can highlight
// and deselect them.
type ConflictResponse struct {
	Message          string    `json:"message"`
	ConflictingSeats []string  `json:"conflictingSeats"`
	RequestId        string    `json:"requestId,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

// ShowKeyParams identifies one screening. It is embedded in every request
// that operates on a show's seat inventory.
type ShowKeyParams struct {
	TheatreId string `json:"theatreId" validate:"required"`
	MovieId   string `json:"movieId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Showtime  string `json:"showtime" validate:"required,showtime"`
}

type SeatClass string

const (
	Standard   SeatClass = "standard"
	Premium    SeatClass = "premium"
	VIP        SeatClass = "vip"
	Wheelchair SeatClass = "wheelchair"
	Aisle      SeatClass = "aisle"
)

type Seat struct {
	Id        string    `json:"id"`
	Row       string    `json:"row"`
	Number    int       `json:"number"`
	Class     SeatClass `json:"class"`
	Price     int64     `json:"price"`
	Available bool      `json:"available"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	TheatreId   string    `json:"theatreId"`
	TheatreName string    `json:"theatreName"`
	MovieId     string    `json:"movieId"`
	MovieTitle  string    `json:"movieTitle"`
	Date        string    `json:"date"`
	Showtime    string    `json:"showtime"`
	SeatRows    []SeatRow `json:"seatRows"`
}

type BookedSeatsResponse struct {
	SeatIds []string `json:"seatIds"`
}

type ValidateSelectionRequest struct {
	ShowKeyParams
	SeatIds []string `json:"seatIds" validate:"dive,seat_id"`
}

type ValidateSelectionResponse struct {
	Status string `json:"status"`
}

type CreateBookingRequest struct {
	ShowKeyParams
	UserId       string   `json:"userId" validate:"required"`
	SeatIds      []string `json:"seatIds" validate:"dive,seat_id"`
	DiscountCode *string  `json:"discountCode,omitempty" validate:"omitempty,min=3,max=32"`
	Email        *string  `json:"email,omitempty" validate:"omitempty,email"`
}

type BookingSeat struct {
	Id     string    `json:"id"`
	Row    string    `json:"row"`
	Number int       `json:"number"`
	Class  SeatClass `json:"class"`
	Price  int64     `json:"price"`
}

type Booking struct {
	Id           string        `json:"id"`
	UserId       string        `json:"userId"`
	TheatreId    string        `json:"theatreId"`
	TheatreName  string        `json:"theatreName"`
	MovieId      string        `json:"movieId"`
	MovieTitle   string        `json:"movieTitle"`
	Date         string        `json:"date"`
	Showtime     string        `json:"showtime"`
	Seats        []BookingSeat `json:"seats"`
	TotalPrice   int64         `json:"totalPrice"`
	DiscountCode string        `json:"discountCode,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type BookingResponse struct {
	Booking Booking `json:"booking"`
}

type BookingSummary struct {
	Id          string    `json:"id"`
	MovieTitle  string    `json:"movieTitle"`
	TheatreName string    `json:"theatreName"`
	Date        string    `json:"date"`
	Showtime    string    `json:"showtime"`
	SeatCount   int       `json:"seatCount"`
	TotalPrice  int64     `json:"totalPrice"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type UserBookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}

type GetUserBookingsParams struct {
	Page     *int `validate:"omitempty,min=1"`
	PageSize *int `validate:"omitempty,min=1,max=100"`
}

type CreateDraftRequest struct {
	ShowKeyParams
	SeatIds []string `json:"seatIds" validate:"min=1,dive,seat_id"`
}

type DraftResponse struct {
	ShowKeyParams
	Seats       []BookingSeat `json:"seats"`
	TotalPrice  int64         `json:"totalPrice"`
	HoldSeconds int           `json:"holdSeconds"`
}

type DiscountResponse struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}
