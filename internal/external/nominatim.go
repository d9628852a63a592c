package external

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"safewalk/internal/config"
	"safewalk/internal/types"
)

// NominatimClient implements Geocoder against the OpenStreetMap Nominatim
// search API, biased toward the configured viewbox but not restricted to
// it. Nominatim's usage policy requires an identifying User-Agent.
type NominatimClient struct {
	base    *BaseClient
	baseURL string
	viewbox string
	limit   int
	logger  *slog.Logger
	timeout time.Duration
}

// NewNominatimClient creates a NominatimClient from the geocoder
// configuration.
func NewNominatimClient(httpClient *http.Client, cfg config.GeocoderConfig, logger *slog.Logger, opts ...BaseClientOption) *NominatimClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &NominatimClient{
		base:    NewBaseClient(httpClient, "nominatim", DefaultRetryPolicy(), cfg.UserAgent, opts...),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		viewbox: cfg.Viewbox,
		limit:   cfg.Limit,
		logger:  logger.With("client", "nominatim"),
		timeout: cfg.Timeout,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search geocodes a free-text query. Results with unparseable coordinates
// are skipped rather than failing the whole query.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]types.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("viewbox", c.viewbox)
	q.Set("bounded", "0")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder, "building geocoder request failed", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder, "decoding geocoder response failed", err)
	}

	places := make([]types.Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			c.logger.WarnContext(ctx, "skipping geocoder result with bad coordinates", "name", r.DisplayName)
			continue
		}
		places = append(places, types.Place{Name: r.DisplayName, Lat: lat, Lng: lng})
	}
	return places, nil
}
