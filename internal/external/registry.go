package external

import (
	"log/slog"
	"net/http"
	"time"

	"safewalk/internal/config"
)

// ClientRegistry holds all external provider client interfaces. It is the
// single point of access for the rest of the application to reach the
// Directions, Places, and geocoding providers.
type ClientRegistry struct {
	Routes   RouteProvider
	POI      POILookup
	Geocoder Geocoder

	// DirectionsConfigured reports whether a real Directions credential
	// is present. The /api/route handler returns a configuration error
	// when it is false, while other endpoints remain functional.
	DirectionsConfigured bool
}

// NewClientRegistry initializes all provider clients. When the Directions
// credential is absent the Routes/POI slots stay nil and the registry is
// flagged unconfigured; the geocoder needs no credential and is always
// real. Test code builds the registry by hand with mock providers.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	reg := &ClientRegistry{}

	// Geocoding passthrough (no credential).
	geocoderHTTP := &http.Client{Timeout: cfg.Geocoder.Timeout + time.Second}
	reg.Geocoder = NewNominatimClient(geocoderHTTP, cfg.Geocoder, logger)

	if !cfg.Google.Configured() {
		logger.Warn("directions provider credential absent; /api/route disabled until configured")
		return reg
	}

	// Per-call deadlines are set by the clients from config; the shared
	// http.Client timeout is a backstop above the largest of them.
	googleHTTP := &http.Client{Timeout: cfg.Google.DirectionsTimeout + 2*time.Second}
	reg.Routes = NewDirectionsClient(googleHTTP, cfg.Google, logger)
	reg.POI = NewPlacesClient(googleHTTP, cfg.Google, logger)
	reg.DirectionsConfigured = true

	return reg
}
