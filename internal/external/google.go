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
	"safewalk/internal/geo"
	"safewalk/internal/types"
)

// DirectionsClient implements RouteProvider against the Google Directions
// API. Paths come from each route's overview_polyline; distance and
// duration are summed over the route's legs.
type DirectionsClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
	logger  *slog.Logger

	// Per-call deadlines: the primary alternatives request gets a larger
	// budget than the fallback detour requests.
	primaryTimeout time.Duration
	detourTimeout  time.Duration
}

// NewDirectionsClient creates a DirectionsClient from the Google provider
// configuration. The base URL is overridable for httptest servers.
func NewDirectionsClient(httpClient *http.Client, cfg config.GoogleConfig, logger *slog.Logger, opts ...BaseClientOption) *DirectionsClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectionsClient{
		base:           NewBaseClient(httpClient, "google-directions", DefaultRetryPolicy(), "SafeWalk/1.0", opts...),
		apiKey:         cfg.APIKey.Unmask(),
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:         logger.With("client", "google_directions"),
		primaryTimeout: cfg.DirectionsTimeout,
		detourTimeout:  cfg.DetourTimeout,
	}
}

// directionsResponse mirrors the subset of the Directions API payload the
// pipeline consumes.
type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// GetRoutes requests walking routes between origin and destination. A
// non-OK provider status or an empty route list is an error: the caller's
// stage logic treats any error as "this attempt produced nothing".
func (c *DirectionsClient) GetRoutes(ctx context.Context, origin, destination types.Coordinate, opts RouteOptions) ([]Route, error) {
	timeout := c.primaryTimeout
	if opts.Via != nil {
		timeout = c.detourTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%v,%v", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%v,%v", destination.Lat, destination.Lng))
	q.Set("mode", "walking")
	q.Set("key", c.apiKey)
	if opts.Via != nil {
		q.Set("waypoints", fmt.Sprintf("via:%v,%v", opts.Via.Lat, opts.Via.Lng))
	} else if opts.Alternatives {
		q.Set("alternatives", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/maps/api/directions/json?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDirections, "building directions request failed", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDirections, "decoding directions response failed", err)
	}

	if body.Status != "OK" || len(body.Routes) == 0 {
		c.logger.WarnContext(ctx, "directions request returned no usable routes",
			"status", body.Status,
			"error_message", body.ErrorMessage,
		)
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamStatus,
			"directions provider returned non-success status", nil,
			map[string]any{"status": body.Status})
	}

	routes := make([]Route, 0, len(body.Routes))
	for _, r := range body.Routes {
		coords, err := geo.DecodePolyline(r.OverviewPolyline.Points)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping route with undecodable polyline", "error", err)
			continue
		}
		var distanceM, durationS float64
		for _, leg := range r.Legs {
			distanceM += leg.Distance.Value
			durationS += leg.Duration.Value
		}
		routes = append(routes, Route{
			Coords:    coords,
			DistanceM: distanceM,
			DurationS: durationS,
		})
	}
	if len(routes) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamDirections, "no decodable routes in provider response", nil)
	}
	return routes, nil
}
