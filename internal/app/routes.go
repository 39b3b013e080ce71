package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(app.loggerContext)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.ensureGuestUserSession)

	r.Get("/healthcheck", app.GetHealth)

	r.Route("/shows", func(r chi.Router) {
		r.Get("/seat-map", app.GetSeatMap)
		r.Get("/booked-seats", app.GetBookedSeats)
		r.Post("/validate", app.ValidateSelectionHandler)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.With(app.rateLimitCommits).Post("/", app.CreateBookingHandler)
		r.Get("/{bookingId}", app.GetBookingById)
	})

	r.Get("/users/{userId}/bookings", app.GetUserBookings)

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", app.CreateDraftHandler)
		r.Delete("/", app.DeleteDraftHandler)
	})

	r.Get("/discounts/{code}", app.GetDiscount)

	return r
}
