package external

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safewalk/internal/config"
	"safewalk/internal/types"
)

// testPolylineEncoded is the worked example from the Google polyline
// algorithm documentation: (38.5,-120.2) (40.7,-120.95) (43.252,-126.453).
const testPolylineEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func googleTestConfig(baseURL string) config.GoogleConfig {
	return config.GoogleConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		DirectionsTimeout: 2 * time.Second,
		DetourTimeout:     2 * time.Second,
		PlacesTimeout:     2 * time.Second,
	}
}

func directionsBody(status string, legs int) map[string]any {
	route := map[string]any{
		"overview_polyline": map[string]any{"points": testPolylineEncoded},
		"legs":              []map[string]any{},
	}
	legList := []map[string]any{}
	for i := 0; i < legs; i++ {
		legList = append(legList, map[string]any{
			"distance": map[string]any{"value": 500.0},
			"duration": map[string]any{"value": 360.0},
		})
	}
	route["legs"] = legList
	body := map[string]any{"status": status}
	if status == "OK" {
		body["routes"] = []map[string]any{route}
	}
	return body
}

func TestDirectionsClient_GetRoutesDecodesPolylineAndSumsLegs(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(directionsBody("OK", 2))
	}))
	defer server.Close()

	client := NewDirectionsClient(server.Client(), googleTestConfig(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))

	routes, err := client.GetRoutes(context.Background(),
		types.Coordinate{Lat: 40.9142, Lng: -73.1232},
		types.Coordinate{Lat: 40.9153, Lng: -73.1220},
		RouteOptions{Alternatives: true},
	)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	assert.Equal(t, 1000.0, routes[0].DistanceM)
	assert.Equal(t, 720.0, routes[0].DurationS)
	require.Len(t, routes[0].Coords, 3)
	assert.InDelta(t, 38.5, routes[0].Coords[0].Lat, 1e-5)

	assert.Equal(t, "walking", gotQuery.Get("mode"))
	assert.Equal(t, "true", gotQuery.Get("alternatives"))
	assert.Equal(t, "40.9142,-73.1232", gotQuery.Get("origin"))
	assert.Empty(t, gotQuery.Get("waypoints"))
}

func TestDirectionsClient_ViaWaypointRequest(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(directionsBody("OK", 1))
	}))
	defer server.Close()

	client := NewDirectionsClient(server.Client(), googleTestConfig(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))

	via := types.Coordinate{Lat: 40.9148, Lng: -73.1232}
	_, err := client.GetRoutes(context.Background(),
		types.Coordinate{Lat: 40.9142, Lng: -73.1232},
		types.Coordinate{Lat: 40.9153, Lng: -73.1220},
		RouteOptions{Via: &via},
	)
	require.NoError(t, err)

	assert.Equal(t, "via:40.9148,-73.1232", gotQuery.Get("waypoints"))
	// Alternatives are never requested for detour routes.
	assert.Empty(t, gotQuery.Get("alternatives"))
}

func TestDirectionsClient_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(directionsBody("ZERO_RESULTS", 0))
	}))
	defer server.Close()

	client := NewDirectionsClient(server.Client(), googleTestConfig(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.GetRoutes(context.Background(),
		types.Coordinate{Lat: 40.9142, Lng: -73.1232},
		types.Coordinate{Lat: 40.9153, Lng: -73.1220},
		RouteOptions{Alternatives: true},
	)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamStatus, appErr.Code)
}

func TestPlacesClient_NearbySearch(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"name": "Campus Library", "geometry": map[string]any{"location": map[string]any{"lat": 40.9153, "lng": -73.1220}}},
				{"name": "Student Union", "geometry": map[string]any{"location": map[string]any{"lat": 40.9149, "lng": -73.1225}}},
			},
		})
	}))
	defer server.Close()

	client := NewPlacesClient(server.Client(), googleTestConfig(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))

	pois, err := client.NearbySearch(context.Background(),
		types.Coordinate{Lat: 40.9147, Lng: -73.1226}, 400,
		"university|point_of_interest|park|establishment",
	)
	require.NoError(t, err)
	require.Len(t, pois, 2)

	// Provider relevance order is preserved.
	assert.Equal(t, "Campus Library", pois[0].Name)
	assert.Equal(t, "400", gotQuery.Get("radius"))
	assert.Equal(t, "university|point_of_interest|park|establishment", gotQuery.Get("type"))
}

func TestPlacesClient_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED"})
	}))
	defer server.Close()

	client := NewPlacesClient(server.Client(), googleTestConfig(server.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.NearbySearch(context.Background(), types.Coordinate{}, 400, "establishment")
	require.Error(t, err)
}
