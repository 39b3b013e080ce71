package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	seatIdRgx   = regexp.MustCompile(`^[A-Z]+[1-9][0-9]*$`)
	showtimeRgx = regexp.MustCompile(`^(0?[1-9]|1[0-2]):[0-5][0-9] (AM|PM)$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_id", validateSeatId)
	validator.RegisterValidation("showtime", validateShowtime)

	return validator
}

// validateSeatId accepts row-letter plus 1-indexed column ids like "A1" or
// "C12". Format only; whether the seat exists in the venue is the
// reservation engine's call.
func validateSeatId(fl validator.FieldLevel) bool {
	return seatIdRgx.MatchString(fl.Field().String())
}

func validateShowtime(fl validator.FieldLevel) bool {
	return showtimeRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have at least %s items or characters", err.Param())
	case "max":
		return fmt.Sprintf("must have at most %s items or characters", err.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "showtime":
		return "must be a showtime like \"10:00 AM\""
	case "seat_id":
		return "must be a seat id like \"C12\""
	default:
		return "is invalid"
	}
}
