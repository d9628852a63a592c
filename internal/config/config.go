// Package config defines the global configuration for the SafeWalk service.
// Configuration is loaded once at process startup and is immutable
// thereafter, following 12-Factor principles: values come from the OS
// environment, optionally seeded from a .env file in local development.
//
// A missing required value or invalid format fails the process immediately
// on startup (fail fast). The one deliberate exception is the Directions
// API key: the service boots without it and only the /api/route endpoint
// reports a configuration error, so hazard reporting stays available.
package config

import (
	"time"

	"safewalk/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret
// type used to keep provider credentials out of logs and config dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive
// only the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Store    StoreConfig
	Google   GoogleConfig
	Geocoder GeocoderConfig
	Sensor   SensorConfig
	Routing  RoutingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// StoreConfig selects and tunes the hazard store backend.
type StoreConfig struct {
	// Backend selects the persistence implementation: "file" keeps a JSON
	// array on disk (gzip'd when the path ends in .gz), "postgres" uses a
	// pgx pool against DatabaseURL.
	Backend     string        `envconfig:"STORE_BACKEND" default:"file" validate:"required,oneof=file postgres"`
	Path        string        `envconfig:"STORE_PATH" default:"map_data.json"`
	DatabaseURL SecretString  `envconfig:"DATABASE_URL"`
	MaxConns    int           `envconfig:"DB_MAX_CONNS" default:"4"`
	ConnTimeout time.Duration `envconfig:"DB_CONN_TIMEOUT" default:"5s"`
}

// GoogleConfig holds the Directions/Places provider credential and
// per-call timeouts. The primary alternatives call is allowed more time
// than the fallback detour calls, matching the budget each stage gets.
type GoogleConfig struct {
	APIKey            SecretString  `envconfig:"GOOGLE_MAPS_API_KEY"`
	BaseURL           string        `envconfig:"GOOGLE_MAPS_BASE_URL" default:"https://maps.googleapis.com"`
	DirectionsTimeout time.Duration `envconfig:"DIRECTIONS_TIMEOUT" default:"8s"`
	DetourTimeout     time.Duration `envconfig:"DETOUR_TIMEOUT" default:"5s"`
	PlacesTimeout     time.Duration `envconfig:"PLACES_TIMEOUT" default:"5s"`
}

// Configured reports whether the Directions provider credential is set.
func (g GoogleConfig) Configured() bool {
	return g.APIKey.Unmask() != ""
}

// GeocoderConfig holds the free-text geocoding passthrough settings.
type GeocoderConfig struct {
	BaseURL   string        `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `envconfig:"GEOCODER_USER_AGENT" default:"SafeWalk/1.0"`
	Timeout   time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"5s"`
	// Viewbox biases results toward the deployment area (lng1,lat1,lng2,lat2).
	Viewbox string `envconfig:"GEOCODER_VIEWBOX" default:"-73.150,40.930,-73.100,40.900"`
	Limit   int    `envconfig:"GEOCODER_LIMIT" default:"6"`
}

// SensorConfig holds the hazard sensor ingestion settings. The listener
// dials a line-oriented TCP bridge and records a hazard for each signal
// token received.
type SensorConfig struct {
	Enabled    bool          `envconfig:"SENSOR_ENABLED" default:"false"`
	Addr       string        `envconfig:"SENSOR_ADDR" default:"127.0.0.1:9600"`
	Token      string        `envconfig:"SENSOR_TOKEN" default:"DANGER"`
	RetryDelay time.Duration `envconfig:"SENSOR_RETRY_DELAY" default:"5s"`
}

// RoutingConfig holds the danger-aware routing parameters.
type RoutingConfig struct {
	// ProximityM is the single threshold used both to flag a route vertex
	// as passing near a hazard and to filter POIs as viable detour anchors.
	ProximityM float64 `envconfig:"DANGER_PROXIMITY_M" default:"80" validate:"gt=0"`

	// DedupRadiusM is vestigial: store deduplication was deliberately
	// disabled upstream of this service and the radius is retained in
	// configuration but never applied. Wiring it in would change which
	// reports are recorded and needs a product decision first.
	DedupRadiusM float64 `envconfig:"DEDUP_RADIUS_M" default:"50"`

	POIRadiusM       float64 `envconfig:"POI_RADIUS_M" default:"400" validate:"gt=0"`
	MaxPOIDetours    int     `envconfig:"MAX_POI_DETOURS" default:"3" validate:"gt=0"`
	WalkSpeedMPerMin float64 `envconfig:"WALK_SPEED_M_PER_MIN" default:"80" validate:"gt=0"`

	// Default location for sensor-originated reports when the sensor feed
	// carries no position of its own, plus the jitter applied around it.
	DefaultLat float64 `envconfig:"DEFAULT_LAT" default:"40.91420"`
	DefaultLng float64 `envconfig:"DEFAULT_LNG" default:"-73.12320"`
	JitterDeg  float64 `envconfig:"LOCATION_JITTER_DEG" default:"0.0035"`
}
