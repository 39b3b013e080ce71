package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/odlcinemas/booking-ledger/internal/seatmap"
	"github.com/redis/go-redis/v9"
)

const (
	seatHoldTTL = 10 * time.Minute
	draftTTL    = 10 * time.Minute
)

var holdSeatsScript = redis.NewScript(`
    -- KEYS = seat hold keys (e.g., seat_hold:<show>:A1, seat_hold:<show>:A2 etc.)
    -- ARGV = [sessionID, ttl]

    for i=1, #KEYS do
        if redis.call("EXISTS", KEYS[i]) == 1 then
            return {err = "seat already held"} -- Return an error indicator
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "EX", ARGV[2])
    end

    return "OK"
`)

// CreateDraftHandler places advisory TTL holds on a seat selection for the
// current session. A draft never guarantees the seats: the booking commit
// revalidates against the ledger alone.
func (app *Application) CreateDraftHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateDraftRequest

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
	sessionID := app.sessionManager.Token(r.Context())

	draftId, err := app.redis.Get(r.Context(), draftSessionKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		logger.Error("failed to check for existing draft in redis", "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	if draftId != "" {
		logger.Warn("draft creation attempt rejected: a draft already exists for this session")
		app.badRequestResponse(w, r, fmt.Errorf("cannot create a new draft while one already exists in session"))
		return
	}

	show, err := app.catalogRepo.GetShow(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	venue := seatmap.Index(seatmap.Generate(show.Layout))

	seats := make([]domain.Seat, 0, len(input.SeatIds))
	var unknown []string
	for _, seatId := range input.SeatIds {
		seat, ok := venue[seatId]
		if !ok {
			unknown = append(unknown, seatId)
			continue
		}
		seats = append(seats, seat)
	}
	if len(unknown) > 0 {
		logger.Warn("draft creation failed: seat ids outside the venue map", "seat_ids", unknown)
		app.unprocessableEntityResponse(w, r, (&domain.UnknownSeatError{SeatIDs: unknown}).Error())
		return
	}

	booked, err := app.engine.BookedSeats(r.Context(), key)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, seatId := range booked {
		bookedSet[seatId] = true
	}

	var conflicting []string
	for _, seatId := range input.SeatIds {
		if bookedSet[seatId] {
			conflicting = append(conflicting, seatId)
		}
	}
	if len(conflicting) > 0 {
		logger.Warn("draft creation conflict: selection overlaps booked seats", "seat_ids", conflicting)
		app.seatConflictResponse(w, r, conflicting)
		return
	}

	err = app.tryHoldSeats(r.Context(), key, input.SeatIds, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatAlreadyHeld):
			logger.Warn("draft creation conflict: another session holds part of the selection")
			app.seatConflictResponse(w, r, input.SeatIds)
		default:
			app.serverErrorResponse(w, r, fmt.Errorf("seat holds couldn't be acquired: %w", err))
		}

		return
	}

	draft, err := app.createDraft(r.Context(), key, seats, input.SeatIds, sessionID)
	if err != nil {
		logger.Error("draft creation process failed", "error", err)
		app.serverErrorResponse(w, r, fmt.Errorf("draft couldn't be created: %w", err))
		return
	}

	resp := toDraftResponse(draft)

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteDraftHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	sessionID := app.sessionManager.Token(r.Context())

	draftId, err := app.redis.Get(r.Context(), draftSessionKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if draftId == "" {
		app.notFoundResponse(w, r)
		return
	}

	draftBytes, err := app.redis.Get(r.Context(), draftId).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The session points to a draft that no longer exists, delete the session key
			logger.Warn("dangling draft session key found and cleaned up", "dangling_draft_id", draftId)
			app.redis.Del(r.Context(), draftSessionKey(sessionID))
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	var draft domain.Draft

	err = json.Unmarshal(draftBytes, &draft)
	if err != nil {
		logger.Error("failed to unmarshal draft from redis", "draft_id", draftId, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	pipe := app.redis.TxPipeline()

	for _, seat := range draft.Seats {
		pipe.Del(r.Context(), seatHoldKey(draft.Key, seat.ID))
		pipe.SRem(r.Context(), seatHoldSetKey(draft.Key), seat.ID)
	}

	pipe.Del(r.Context(), draftId)
	pipe.Del(r.Context(), draftSessionKey(sessionID))

	_, err = pipe.Exec(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) tryHoldSeats(ctx context.Context, key domain.ShowKey, seatIDs []string, sessionID string) error {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatHoldKey(key, seatID)
	}

	err := holdSeatsScript.Run(ctx, app.redis, keys, sessionID, int(seatHoldTTL.Seconds())).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat already held") {
			return domain.ErrSeatAlreadyHeld
		}

		return err
	}

	return nil
}

func (app *Application) createDraft(
	ctx context.Context,
	key domain.ShowKey,
	seats []domain.Seat,
	seatIDs []string,
	sessionID string) (*domain.Draft, error) {

	draft := domain.NewDraft(key, seats)
	draftBytes, err := json.Marshal(draft)
	if err != nil {
		app.rollbackSeatHolds(ctx, key, seatIDs)
		return nil, err
	}

	pipe := app.redis.TxPipeline()

	seatIdInterfaces := make([]interface{}, len(seatIDs))
	for i, seatID := range seatIDs {
		seatIdInterfaces[i] = seatID
	}
	pipe.SAdd(ctx, seatHoldSetKey(key), seatIdInterfaces...)

	pipe.Set(ctx, draftSessionKey(sessionID), draft.ID, draftTTL)
	pipe.Set(ctx, draft.ID, draftBytes, draftTTL)

	_, err = pipe.Exec(ctx)
	if err != nil {
		app.rollbackSeatHolds(ctx, key, seatIDs)
		return nil, err
	}

	return &draft, nil
}

func (app *Application) rollbackSeatHolds(ctx context.Context, key domain.ShowKey, seatIDs []string) {
	holdKeys := make([]string, len(seatIDs))
	seatIdInterfaces := make([]interface{}, len(seatIDs))

	for i, seatID := range seatIDs {
		holdKeys[i] = seatHoldKey(key, seatID)
		seatIdInterfaces[i] = seatID
	}

	pipe := app.redis.TxPipeline()
	pipe.Del(ctx, holdKeys...)
	pipe.SRem(ctx, seatHoldSetKey(key), seatIdInterfaces...)

	_, err := pipe.Exec(ctx)
	if err != nil {
		app.logger.Error("failed to rollback seat holds", "error", err)
		return
	}
}

func toDraftResponse(draft *domain.Draft) api.DraftResponse {
	seats := make([]api.BookingSeat, len(draft.Seats))
	for i, v := range draft.Seats {
		seats[i] = api.BookingSeat{
			Id:     v.ID,
			Row:    v.Row,
			Number: v.Number,
			Class:  api.SeatClass(v.Class),
			Price:  v.Price,
		}
	}

	return api.DraftResponse{
		ShowKeyParams: api.ShowKeyParams{
			TheatreId: draft.Key.TheatreID,
			MovieId:   draft.Key.MovieID,
			Date:      draft.Key.Date,
			Showtime:  draft.Key.Showtime,
		},
		Seats:       seats,
		TotalPrice:  draft.TotalPrice,
		HoldSeconds: int(draftTTL.Seconds()),
	}
}

// showKeyID flattens a show key into a redis-safe identifier. The pipe
// separator never appears in catalog ids, dates or showtimes.
func showKeyID(key domain.ShowKey) string {
	return strings.Join([]string{key.TheatreID, key.MovieID, key.Date, key.Showtime}, "|")
}

func draftSessionKey(sessionID string) string {
	return fmt.Sprintf("draft:%s", sessionID)
}

func seatHoldKey(key domain.ShowKey, seatID string) string {
	return fmt.Sprintf("seat_hold:%s:%s", showKeyID(key), seatID)
}

func seatHoldSetKey(key domain.ShowKey) string {
	return fmt.Sprintf("seat_holds:%s", showKeyID(key))
}
