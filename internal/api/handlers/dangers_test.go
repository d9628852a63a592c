package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"safewalk/internal/core"
	"safewalk/internal/types"
)

// --- Mock Store ---

type mockStore struct {
	points   []types.DangerPoint
	addErr   error
	listErr  error
	clearErr error

	added   []types.Coordinate
	cleared bool
}

func (m *mockStore) Add(_ context.Context, lat, lng float64) (*types.DangerPoint, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.added = append(m.added, types.Coordinate{Lat: lat, Lng: lng})
	p := types.DangerPoint{
		ID:        uuid.NewString(),
		Lat:       lat,
		Lng:       lng,
		Timestamp: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Label:     types.DangerPointLabel,
	}
	m.points = append(m.points, p)
	return &p, nil
}

func (m *mockStore) List(_ context.Context) ([]types.DangerPoint, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.points, nil
}

func (m *mockStore) Clear(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	m.points = nil
	return nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedLocator(lat, lng float64) ReportLocator {
	return func() (float64, float64) { return lat, lng }
}

func makeDangerRouter(store *mockStore, locator ReportLocator) http.Handler {
	h := NewDangerHandler(store, locator, core.NewValidator(), testLogger())
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

// --- List ---

func TestDangerList_EmptyStoreReturnsArray(t *testing.T) {
	router := makeDangerRouter(&mockStore{}, fixedLocator(0, 0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dangers", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}

func TestDangerList_ReturnsStoredPoints(t *testing.T) {
	store := &mockStore{}
	_, _ = store.Add(context.Background(), 40.914235, -73.123201)
	router := makeDangerRouter(store, fixedLocator(0, 0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dangers", nil))

	var points []types.DangerPoint
	if err := json.Unmarshal(w.Body.Bytes(), &points); err != nil {
		t.Fatalf("response is not a DangerPoint array: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Label != types.DangerPointLabel {
		t.Errorf("expected label %q, got %q", types.DangerPointLabel, points[0].Label)
	}
}

func TestDangerList_StoreErrorReturns500(t *testing.T) {
	store := &mockStore{listErr: types.NewAppError(types.ErrCodeInternalStore, "read failed", errors.New("io"))}
	router := makeDangerRouter(store, fixedLocator(0, 0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dangers", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// --- Report ---

func TestDangerReport_ExplicitCoordinates(t *testing.T) {
	store := &mockStore{}
	router := makeDangerRouter(store, fixedLocator(99, 99))

	body := strings.NewReader(`{"lat": 40.9142, "lng": -73.1232}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/danger", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp dangerReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Status != "added" {
		t.Errorf("expected status added, got %q", resp.Status)
	}
	if resp.Point == nil || resp.Point.Lat != 40.9142 || resp.Point.Lng != -73.1232 {
		t.Errorf("expected explicit coordinates echoed, got %+v", resp.Point)
	}
	if len(store.added) != 1 || store.added[0].Lat == 99 {
		t.Errorf("locator used despite explicit coordinates: %+v", store.added)
	}
}

func TestDangerReport_EmptyBodyAutoLocates(t *testing.T) {
	store := &mockStore{}
	router := makeDangerRouter(store, fixedLocator(40.9150, -73.1210))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/danger", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.added) != 1 {
		t.Fatalf("expected one stored point, got %d", len(store.added))
	}
	if store.added[0].Lat != 40.9150 || store.added[0].Lng != -73.1210 {
		t.Errorf("expected locator coordinates, got %+v", store.added[0])
	}
}

func TestDangerReport_PartialCoordinatesAutoLocates(t *testing.T) {
	store := &mockStore{}
	router := makeDangerRouter(store, fixedLocator(40.9150, -73.1210))

	body := strings.NewReader(`{"lat": 40.9142}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/danger", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if store.added[0].Lat != 40.9150 {
		t.Errorf("expected locator to place partial report, got %+v", store.added[0])
	}
}

func TestDangerReport_MalformedBodyRejected(t *testing.T) {
	store := &mockStore{}
	router := makeDangerRouter(store, fixedLocator(0, 0))

	body := strings.NewReader(`{"lat": "north"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/danger", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(store.added) != 0 {
		t.Error("malformed report must not be stored")
	}
}

func TestDangerReport_OutOfRangeCoordinatesRejected(t *testing.T) {
	store := &mockStore{}
	router := makeDangerRouter(store, fixedLocator(0, 0))

	body := strings.NewReader(`{"lat": 120.0, "lng": -73.1232}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/danger", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJitteredLocator_StaysWithinBounds(t *testing.T) {
	locator := JitteredLocator(40.91420, -73.12320, 0.0035)

	for i := 0; i < 100; i++ {
		lat, lng := locator()
		if lat < 40.91420-0.0035 || lat > 40.91420+0.0035 {
			t.Fatalf("lat %v outside jitter bounds", lat)
		}
		if lng < -73.12320-0.0035 || lng > -73.12320+0.0035 {
			t.Fatalf("lng %v outside jitter bounds", lng)
		}
	}
}

// --- Clear ---

func TestDangerClear(t *testing.T) {
	store := &mockStore{}
	_, _ = store.Add(context.Background(), 40.9142, -73.1232)
	router := makeDangerRouter(store, fixedLocator(0, 0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/dangers/clear", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["status"] != "cleared" {
		t.Errorf("expected status cleared, got %q", resp["status"])
	}
	if !store.cleared {
		t.Error("expected store Clear to be called")
	}
}

func TestDangerClear_StoreErrorReturns500(t *testing.T) {
	store := &mockStore{clearErr: types.NewAppError(types.ErrCodeInternalStore, "write failed", nil)}
	router := makeDangerRouter(store, fixedLocator(0, 0))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/dangers/clear", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
