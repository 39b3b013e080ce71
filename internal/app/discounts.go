package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/domain"
)

// GetDiscount lets the UI check a code before it is applied to a commit.
func (app *Application) GetDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		app.notFoundResponse(w, r)
		return
	}

	discount, err := app.discountRepo.Resolve(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDiscountInvalid):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrDiscountExpired):
			app.unprocessableEntityResponse(w, r, "Discount code has expired")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := api.DiscountResponse{
		Code:        discount.Code,
		Kind:        string(discount.Kind),
		Amount:      discount.Amount,
		Description: discount.Description,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
