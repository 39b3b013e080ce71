package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/odlcinemas/booking-ledger/internal/seatmap"
	"github.com/redis/go-redis/v9"
)

// Redis Lua script to clean up expired seat holds and return currently valid held seat IDs.
var filterValidHeldSeats = redis.NewScript(`
	local setKey = KEYS[1]
	local showId = ARGV[1]
	local cursor = "0"
	local batchSize = 100
	local expiredSeats = {}
	local validSeats = {}

	repeat
		local result = redis.call("SSCAN", setKey, cursor, "COUNT", batchSize)
		cursor = result[1]
		local seatIds = result[2]

		for _, seatId in ipairs(seatIds) do
			local lockKey = "seat_hold:" .. showId .. ":" .. seatId
			if redis.call("EXISTS", lockKey) == 0 then
				table.insert(expiredSeats, seatId)
			else
				table.insert(validSeats, seatId)
			end
		end
	until cursor == "0"

	if #expiredSeats > 0 then
		redis.call("SREM", setKey, unpack(expiredSeats))
	end

	return validSeats
`)

// showKeyParamsFromQuery reads the show identity out of the query string.
// Validation happens separately through the shared validator.
func showKeyParamsFromQuery(r *http.Request) api.ShowKeyParams {
	q := r.URL.Query()

	return api.ShowKeyParams{
		TheatreId: q.Get("theatreId"),
		MovieId:   q.Get("movieId"),
		Date:      q.Get("date"),
		Showtime:  q.Get("showtime"),
	}
}

func toShowKey(params api.ShowKeyParams) domain.ShowKey {
	return domain.ShowKey{
		TheatreID: params.TheatreId,
		MovieID:   params.MovieId,
		Date:      params.Date,
		Showtime:  params.Showtime,
	}
}

func (app *Application) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	params := showKeyParamsFromQuery(r)

	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	key := toShowKey(params)

	show, err := app.catalogRepo.GetShow(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	seats := seatmap.Generate(show.Layout)
	if len(seats) == 0 {
		logger.Warn("show has an empty venue layout", "theatre_id", key.TheatreID, "movie_id", key.MovieID)
		app.notFoundResponse(w, r)
		return
	}

	unavailable, err := app.unavailableSeats(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toSeatMapResponse(show, seats, unavailable)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookedSeats(w http.ResponseWriter, r *http.Request) {
	params := showKeyParamsFromQuery(r)

	err := app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	key := toShowKey(params)

	if _, err := app.catalogRepo.GetShow(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	seatIds, err := app.engine.BookedSeats(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookedSeatsResponse{SeatIds: seatIds}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ValidateSelectionHandler(w http.ResponseWriter, r *http.Request) {
	var input api.ValidateSelectionRequest

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

	err = app.engine.ValidateSelection(r.Context(), key, input.SeatIds)
	if err != nil {
		app.respondToSelectionError(w, r, err)
		return
	}

	resp := api.ValidateSelectionResponse{Status: "OK"}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// respondToSelectionError maps engine validation failures onto the API error
// surface shared by the validate and commit endpoints.
func (app *Application) respondToSelectionError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *domain.SeatConflictError
	var unknownErr *domain.UnknownSeatError

	switch {
	case errors.Is(err, domain.ErrEmptySelection):
		app.unprocessableEntityResponse(w, r, "Seat selection must contain at least one seat")
	case errors.As(err, &unknownErr):
		app.unprocessableEntityResponse(w, r, err.Error())
	case errors.As(err, &conflictErr):
		app.seatConflictResponse(w, r, conflictErr.SeatIDs)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrStoreUnavailable):
		app.storeUnavailableResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// unavailableSeats is the union of seats committed to the ledger and seats
// currently held by draft sessions. Holds are advisory and only shape this
// view; the commit path ignores them entirely.
func (app *Application) unavailableSeats(ctx context.Context, key domain.ShowKey) (map[string]bool, error) {
	booked, err := app.engine.BookedSeats(ctx, key)
	if err != nil {
		return nil, err
	}

	cmd := filterValidHeldSeats.Run(ctx, app.redis, []string{seatHoldSetKey(key)}, showKeyID(key))
	heldSeatIds, err := cmd.StringSlice()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to run filterValidHeldSeats script: %w", err)
	}

	unavailable := make(map[string]bool, len(booked)+len(heldSeatIds))

	for _, seatId := range booked {
		unavailable[seatId] = true
	}
	for _, seatId := range heldSeatIds {
		unavailable[seatId] = true
	}

	return unavailable, nil
}

func toSeatMapResponse(show *domain.Show, seats []domain.Seat, unavailable map[string]bool) api.SeatMapResponse {
	return api.SeatMapResponse{
		TheatreId:   show.Key.TheatreID,
		TheatreName: show.TheatreName,
		MovieId:     show.Key.MovieID,
		MovieTitle:  show.MovieTitle,
		Date:        show.Key.Date,
		Showtime:    show.Key.Showtime,
		SeatRows:    toSeatRows(seats, unavailable),
	}
}

func toSeatRows(seats []domain.Seat, unavailable map[string]bool) []api.SeatRow {
	// Seats are generated row by row, so one pass suffices.
	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: seats[0].Row}

	for _, v := range seats {
		if v.Row != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.Row}
		}

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:        v.ID,
			Row:       v.Row,
			Number:    v.Number,
			Class:     api.SeatClass(v.Class),
			Price:     v.Price,
			Available: !unavailable[v.ID],
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}
