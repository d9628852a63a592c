package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safewalk/internal/config"
	"safewalk/internal/types"
)

// PlacesClient implements POILookup against the Google Places Nearby
// Search API. Results keep the provider's relevance ordering.
type PlacesClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
	logger  *slog.Logger
	timeout time.Duration
}

// NewPlacesClient creates a PlacesClient from the Google provider
// configuration. The base URL is overridable for httptest servers.
func NewPlacesClient(httpClient *http.Client, cfg config.GoogleConfig, logger *slog.Logger, opts ...BaseClientOption) *PlacesClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacesClient{
		base:    NewBaseClient(httpClient, "google-places", DefaultRetryPolicy(), "SafeWalk/1.0", opts...),
		apiKey:  cfg.APIKey.Unmask(),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger.With("client", "google_places"),
		timeout: cfg.PlacesTimeout,
	}
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearbySearch returns points of interest within radiusM of center.
func (c *PlacesClient) NearbySearch(ctx context.Context, center types.Coordinate, radiusM float64, categories string) ([]types.POICandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%v,%v", center.Lat, center.Lng))
	q.Set("radius", fmt.Sprintf("%v", radiusM))
	q.Set("type", categories)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/maps/api/place/nearbysearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces, "building places request failed", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPlaces, "decoding places response failed", err)
	}

	if body.Status != "OK" {
		c.logger.WarnContext(ctx, "places request returned non-success status", "status", body.Status)
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamStatus,
			"places provider returned non-success status", nil,
			map[string]any{"status": body.Status})
	}

	pois := make([]types.POICandidate, 0, len(body.Results))
	for _, r := range body.Results {
		pois = append(pois, types.POICandidate{
			Name: r.Name,
			Lat:  r.Geometry.Location.Lat,
			Lng:  r.Geometry.Location.Lng,
		})
	}
	return pois, nil
}
