package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrEmptySelection      = errors.New("seat selection is empty")
	ErrSeatAlreadyReserved = errors.New("seat(s) are already reserved")
	ErrSeatAlreadyHeld     = errors.New("seat(s) are held by another session")
	ErrEditConflict        = errors.New("edit conflict")
	ErrStoreUnavailable    = errors.New("booking ledger store unavailable")
	ErrDiscountInvalid     = errors.New("discount code is not valid")
	ErrDiscountExpired     = errors.New("discount code has expired")
	ErrDraftNotFound       = errors.New("draft not found or has expired")
	ErrDraftConflict       = errors.New("a held seat does not belong to the current session")
)

// SeatConflictError reports exactly which requested seats are already booked
// for the show, so callers can deselect them and retry with different seats.
type SeatConflictError struct {
	SeatIDs []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already booked: %s", strings.Join(e.SeatIDs, ", "))
}

// UnknownSeatError reports seat ids that do not exist in the venue's seat map.
type UnknownSeatError struct {
	SeatIDs []string
}

func (e *UnknownSeatError) Error() string {
	return fmt.Sprintf("unknown seat id(s): %s", strings.Join(e.SeatIDs, ", "))
}
