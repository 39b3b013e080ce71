package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/odlcinemas/booking-ledger/internal/reservation"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// CreateBookingHandler commits a seat selection to the ledger. The ledger's
// conditional append is the only arbiter: any draft holds the session may have
// are released afterwards but never consulted here.
func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	key := toShowKey(input.ShowKeyParams)

	var discount *domain.Discount
	if input.DiscountCode != nil {
		discount, err = app.discountRepo.Resolve(r.Context(), *input.DiscountCode)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrDiscountInvalid):
				app.unprocessableEntityResponse(w, r, "Discount code is not valid")
			case errors.Is(err, domain.ErrDiscountExpired):
				app.unprocessableEntityResponse(w, r, "Discount code has expired")
			default:
				app.serverErrorResponse(w, r, err)
			}
			return
		}
	}

	booking, err := app.engine.Commit(r.Context(), reservation.CommitRequest{
		Key:      key,
		UserID:   input.UserId,
		SeatIDs:  input.SeatIds,
		Discount: discount,
	})
	if err != nil {
		app.respondToSelectionError(w, r, err)
		return
	}

	logger.Info("booking committed",
		"booking_id", booking.ID,
		"seat_count", len(booking.Seats),
		"total_price", booking.TotalPrice,
	)

	if discount != nil {
		err = app.discountRepo.MarkUsed(r.Context(), discount.Code)
		if err != nil {
			// The booking is already durable, losing one usage tick is acceptable.
			logger.Error("failed to mark discount as used", "code", discount.Code, "error", err)
		}
	}

	sessionID := app.sessionManager.Token(r.Context())
	app.background(func() {
		app.releaseSessionDraft(context.Background(), sessionID)
	})

	if input.Email != nil {
		recipient := *input.Email
		data := confirmationMailData(booking)

		app.background(func() {
			err := app.mailer.Send(recipient, "booking_confirmation.tmpl", data)
			if err != nil {
				app.logger.Error("failed to send booking confirmation mail", "booking_id", booking.ID, "error", err)
			}
		})
	}

	resp := api.BookingResponse{Booking: toApiBooking(booking)}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingById(w http.ResponseWriter, r *http.Request) {
	bookingId := chi.URLParam(r, "bookingId")
	if bookingId == "" {
		app.notFoundResponse(w, r)
		return
	}

	booking, err := app.ledgerRepo.GetByID(r.Context(), bookingId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingResponse{Booking: toApiBooking(booking)}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")
	if userId == "" {
		app.notFoundResponse(w, r)
		return
	}

	params := api.GetUserBookingsParams{}

	if page := r.URL.Query().Get("page"); page != "" {
		pageNum, err := strconv.Atoi(page)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("page must be an integer"))
			return
		}
		params.Page = &pageNum
	}

	if pageSize := r.URL.Query().Get("pageSize"); pageSize != "" {
		pageSizeNum, err := strconv.Atoi(pageSize)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("pageSize must be an integer"))
			return
		}
		params.PageSize = &pageSizeNum
	}

	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	pagination := toPagination(params)

	summaries, metadata, err := app.ledgerRepo.ListByUser(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.UserBookingsResponse{
		Bookings: toApiBookingSummaries(summaries),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// releaseSessionDraft drops the session's draft and its seat holds after a
// successful commit. Best effort: expired or missing holds are fine.
func (app *Application) releaseSessionDraft(ctx context.Context, sessionID string) {
	draftId, err := app.redis.Get(ctx, draftSessionKey(sessionID)).Result()
	if err != nil || draftId == "" {
		return
	}

	draftBytes, err := app.redis.Get(ctx, draftId).Bytes()
	if err != nil {
		app.redis.Del(ctx, draftSessionKey(sessionID))
		return
	}

	var draft domain.Draft
	if err := json.Unmarshal(draftBytes, &draft); err != nil {
		app.logger.Error("failed to unmarshal draft during release", "draft_id", draftId, "error", err)
		return
	}

	pipe := app.redis.TxPipeline()

	for _, seat := range draft.Seats {
		pipe.Del(ctx, seatHoldKey(draft.Key, seat.ID))
		pipe.SRem(ctx, seatHoldSetKey(draft.Key), seat.ID)
	}

	pipe.Del(ctx, draftId)
	pipe.Del(ctx, draftSessionKey(sessionID))

	if _, err := pipe.Exec(ctx); err != nil {
		app.logger.Error("failed to release draft after commit", "draft_id", draftId, "error", err)
	}
}

func toApiBooking(booking *domain.Booking) api.Booking {
	seats := make([]api.BookingSeat, len(booking.Seats))
	for i, v := range booking.Seats {
		seats[i] = api.BookingSeat{
			Id:     v.ID,
			Row:    v.Row,
			Number: v.Number,
			Class:  api.SeatClass(v.Class),
			Price:  v.Price,
		}
	}

	return api.Booking{
		Id:           booking.ID,
		UserId:       booking.UserID,
		TheatreId:    booking.TheatreID,
		TheatreName:  booking.TheatreName,
		MovieId:      booking.MovieID,
		MovieTitle:   booking.MovieTitle,
		Date:         booking.Date,
		Showtime:     booking.Showtime,
		Seats:        seats,
		TotalPrice:   booking.TotalPrice,
		DiscountCode: booking.DiscountCode,
		CreatedAt:    booking.CreatedAt,
	}
}

func toApiBookingSummaries(summaries []domain.BookingSummary) []api.BookingSummary {
	bookingSummaries := make([]api.BookingSummary, len(summaries))

	for i, v := range summaries {
		bookingSummary := &bookingSummaries[i]

		bookingSummary.Id = v.ID
		bookingSummary.MovieTitle = v.MovieTitle
		bookingSummary.TheatreName = v.TheatreName
		bookingSummary.Date = v.Date
		bookingSummary.Showtime = v.Showtime
		bookingSummary.SeatCount = v.SeatCount
		bookingSummary.TotalPrice = v.TotalPrice
		bookingSummary.CreatedAt = v.CreatedAt
	}

	return bookingSummaries
}

func toApiMetadata(metadata *domain.Metadata) api.Metadata {
	if metadata == nil {
		return api.Metadata{}
	}

	return api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}

func toPagination(params api.GetUserBookingsParams) domain.Pagination {
	pagination := domain.Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if params.Page != nil {
		pagination.Page = *params.Page
	}
	if params.PageSize != nil {
		pagination.PageSize = *params.PageSize
	}

	return pagination
}

func confirmationMailData(booking *domain.Booking) map[string]any {
	seats := make([]string, len(booking.Seats))
	for i, v := range booking.Seats {
		seats[i] = v.ID
	}

	return map[string]any{
		"ID":          booking.ID,
		"MovieTitle":  booking.MovieTitle,
		"TheatreName": booking.TheatreName,
		"Date":        booking.Date,
		"Showtime":    booking.Showtime,
		"Seats":       seats,
		"TotalPrice":  booking.TotalPrice,
	}
}
