package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		return k == "timestamp" || k == "requestId" || k == "createdAt"
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

// seedCatalog inserts the canonical test venue: a 2x2 all-standard layout at
// 150 per seat, one movie and one scheduled show.
func seedCatalog(t testing.TB, app *TestApp) {
	t.Helper()
	ctx := context.Background()

	layout := `{"rows": 2, "cols": 2, "basePrices": {"standard": 150}}`

	_, err := app.DB.Exec(ctx, `
		INSERT INTO theatres (id, name, location, layout)
		VALUES ('odl-downtown', 'ODL Downtown', 'Downtown', $1)
		ON CONFLICT (id) DO NOTHING
	`, layout)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO movies (id, title, genre)
		VALUES ('mv-1', 'The Long Goodbye', 'Drama')
		ON CONFLICT (id) DO NOTHING
	`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO shows (theatre_id, movie_id, show_date, show_time)
		VALUES ('odl-downtown', 'mv-1', '2026-09-01', '10:00 AM')
		ON CONFLICT DO NOTHING
	`)
	require.NoError(t, err)
}

func truncateLedger(t testing.TB, app *TestApp) {
	t.Helper()

	_, err := app.DB.Exec(context.Background(), `TRUNCATE booking_seats, bookings`)
	require.NoError(t, err)
}
