package tracking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passMiddleware(c *fiber.Ctx) error { return c.Next() }

func newHandlerApp(t *testing.T, store *fakeStore, clk *fakeClock) (*fiber.App, *Session, *PushProvider) {
	t.Helper()
	provider := NewPushProvider()
	provider.SetGranted(true)
	sess := NewSession(store, nil, provider, nil, clk)
	sess.RetryDelay = 0

	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), sess, provider, nil, passMiddleware)
	return app, sess, provider
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestTrackingHandlersLifecycle(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := newFakeClock(t0)
	store := newFakeStore(plannedTrip("trip-1"))
	app, _, _ := newHandlerApp(t, store, clk)

	resp := postJSON(t, app, "/tracking/arm", map[string]string{"trip_id": "trip-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("arm status: %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/tracking/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status: %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/tracking/fixes", map[string]any{
		"lat": 45.0, "lng": 9.0, "recorded_at": t0.Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fix status: %d", resp.StatusCode)
	}
	resp = postJSON(t, app, "/tracking/fixes", map[string]any{
		"lat": 45.001, "lng": 9.0, "recorded_at": t0.Add(10 * time.Second).Format(time.RFC3339),
	})
	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.DistanceKm < 0.105 || snap.DistanceKm > 0.117 {
		t.Fatalf("unexpected distance: %v", snap.DistanceKm)
	}

	clk.Advance(10 * time.Second)
	resp = postJSON(t, app, "/tracking/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status: %d", resp.StatusCode)
	}
	if got := store.trip("trip-1"); !got.Completed || got.TrackedMs != 10_000 {
		t.Fatalf("unexpected saved trip: %+v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/tracking/state", nil)
	stateResp, err := app.Test(req)
	if err != nil || stateResp.StatusCode != http.StatusOK {
		t.Fatalf("state: %v", err)
	}
	var state Snapshot
	if err := json.NewDecoder(stateResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.State != StateIdle {
		t.Fatalf("expected idle state, got %s", state.State)
	}
}

func TestTrackingHandlersStaleFixDropped(t *testing.T) {
	t0 := time.Now().UTC().Truncate(time.Second)
	clk := newFakeClock(t0)
	store := newFakeStore(plannedTrip("trip-1"))
	app, _, _ := newHandlerApp(t, store, clk)

	postJSON(t, app, "/tracking/arm", map[string]string{"trip_id": "trip-1"})
	postJSON(t, app, "/tracking/start", nil)
	postJSON(t, app, "/tracking/fixes", map[string]any{
		"lat": 45.0, "lng": 9.0, "recorded_at": t0.Add(10 * time.Second).Format(time.RFC3339),
	})

	resp := postJSON(t, app, "/tracking/fixes", map[string]any{
		"lat": 46.0, "lng": 9.0, "recorded_at": t0.Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stale fix status: %d", resp.StatusCode)
	}
	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body["dropped"] {
		t.Fatalf("expected dropped flag")
	}
}

func TestTrackingHandlersErrorStatuses(t *testing.T) {
	clk := newFakeClock(time.Now())
	store := newFakeStore(plannedTrip("trip-1"))
	app, _, provider := newHandlerApp(t, store, clk)

	// start without an armed trip
	if resp := postJSON(t, app, "/tracking/start", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", resp.StatusCode)
	}

	// missing trip_id
	if resp := postJSON(t, app, "/tracking/arm", map[string]string{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}

	// fix without timestamp
	if resp := postJSON(t, app, "/tracking/fixes", map[string]any{"lat": 1.0, "lng": 2.0}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing recorded_at, got %d", resp.StatusCode)
	}

	// start with permission withheld
	provider.SetGranted(false)
	postJSON(t, app, "/tracking/arm", map[string]string{"trip_id": "trip-1"})
	if resp := postJSON(t, app, "/tracking/start", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d", resp.StatusCode)
	}
}

func TestTrackingHandlersPermissionRevocation(t *testing.T) {
	t0 := time.Now()
	clk := newFakeClock(t0)
	store := newFakeStore(plannedTrip("trip-1"))
	app, sess, _ := newHandlerApp(t, store, clk)

	postJSON(t, app, "/tracking/arm", map[string]string{"trip_id": "trip-1"})
	postJSON(t, app, "/tracking/start", nil)
	clk.Advance(30 * time.Second)

	resp := postJSON(t, app, "/tracking/permission", map[string]bool{"granted": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("permission status: %d", resp.StatusCode)
	}
	if sess.Snapshot().State != StatePaused {
		t.Fatalf("expected paused session")
	}
	if store.trip("trip-1").TrackedMs != 30_000 {
		t.Fatalf("tracked time lost: %d", store.trip("trip-1").TrackedMs)
	}

	// re-grant then resume over HTTP
	postJSON(t, app, "/tracking/permission", map[string]bool{"granted": true})
	if resp := postJSON(t, app, "/tracking/resume", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("resume status: %d", resp.StatusCode)
	}
}

func TestTrackingHandlersFailedWriteUnavailable(t *testing.T) {
	clk := newFakeClock(time.Now())
	store := newFakeStore(plannedTrip("trip-1"))
	app, sess, _ := newHandlerApp(t, store, clk)
	sess.WriteAttempts = 1

	postJSON(t, app, "/tracking/arm", map[string]string{"trip_id": "trip-1"})
	postJSON(t, app, "/tracking/start", nil)
	clk.Advance(5 * time.Second)

	store.setFailSaves(10)
	if resp := postJSON(t, app, "/tracking/pause", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable, got %d", resp.StatusCode)
	}

	store.setFailSaves(0)
	if resp := postJSON(t, app, "/tracking/flush", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("flush status: %d", resp.StatusCode)
	}
	if store.trip("trip-1").TrackedMs != 5_000 {
		t.Fatalf("flushed record wrong: %d", store.trip("trip-1").TrackedMs)
	}

	if resp := postJSON(t, app, "/tracking/abandon", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("abandon status: %d", resp.StatusCode)
	}
}

func TestTrackingHandlersSessionHistory(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	created := time.Now()
	mock.ExpectQuery(`SELECT id, trip_id, started_at, ended_at, distance_km, duration_ms, point_count, created_at`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "started_at", "ended_at", "distance_km", "duration_ms", "point_count", "created_at"}).
			AddRow("rec-1", "trip-1", created.Add(-time.Hour), created, 2.5, int64(900_000), 40, created))

	provider := NewPushProvider()
	sess := NewSession(newFakeStore(), nil, provider, nil, newFakeClock(time.Now()))
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking"), sess, provider, NewStore(mock), passMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/tracking/trips/trip-1/sessions", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("sessions: %v", err)
	}
	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
