package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/mocks"
	"github.com/odlcinemas/booking-ledger/internal/repository"
	"github.com/odlcinemas/booking-ledger/internal/reservation"
	"github.com/odlcinemas/booking-ledger/internal/validator"
)

func newTestApplication(opts ...func(*Application)) *Application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		validator:      validator.NewValidator(),
		logger:         logger,
		sessionManager: scs.New(),
		mailer:         &mocks.MockMailer{},
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.engine == nil && app.ledgerRepo != nil && app.catalogRepo != nil {
		app.engine = reservation.NewEngine(app.ledgerRepo, app.catalogRepo, logger)
	}

	return app
}

func newMemoryLedger() *repository.MemoryLedgerRepository {
	return repository.NewMemoryLedgerRepository()
}

func setupTestSession(t *testing.T, app *Application, r *http.Request) *http.Request {
	ctx, err := app.sessionManager.Load(r.Context(), "session")
	if err != nil {
		t.Errorf("Failed to load session: %v", err)
	}

	return r.WithContext(ctx)
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var r *http.Request

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = httptest.NewRequest(method, url, bytes.NewReader(jsonData))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantErrMessage string) {
	if wantStatus >= 200 && wantStatus < 300 {
		return
	}

	switch wantStatus {
	case http.StatusUnprocessableEntity:
		if wantErrMessage == "" {
			return
		}

		// Either a field-level validation response or a plain message.
		var raw map[string]any
		if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&raw); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if msg, ok := raw["message"].(string); ok && msg == wantErrMessage {
			return
		}

		if fieldErrs, ok := raw["validationErrors"].([]any); ok {
			for _, fe := range fieldErrs {
				if m, ok := fe.(map[string]any); ok && m["issue"] == wantErrMessage {
					return
				}
			}
		}

		t.Errorf("Expected error message %q not found in response", wantErrMessage)

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if wantErrMessage != "" && errorResp.Message != wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, wantErrMessage)
		}
	}
}

// withURLParam attaches a chi route parameter to the request, standing in for
// the router in direct handler tests.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func ptr[T any](v T) *T {
	return &v
}
