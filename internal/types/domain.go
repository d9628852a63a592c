// Package types defines the shared domain model for the SafeWalk platform:
// coordinates, danger points, route candidates, and the structured error
// type used across all layers.
package types

import (
	"fmt"
	"time"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
// No altitude component.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Key returns the canonical identity string for a coordinate. Hazard
// identity in danger aggregation is exact string equality of this key,
// not a distance tolerance: two reports a few centimeters apart (after
// 6-decimal rounding) collide, two reports a few meters apart do not.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%v,%v", c.Lat, c.Lng)
}

// DangerPointLabel is the fixed label stamped on every hazard report.
const DangerPointLabel = "Hazard reported"

// DangerPoint is a single hazard report. It is immutable after creation:
// the store only ever appends points or wipes the whole set.
type DangerPoint struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
}

// Coordinate returns the point's location.
func (p DangerPoint) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Safety classifies a route candidate with respect to known hazards.
type Safety string

const (
	SafetySafe      Safety = "safe"
	SafetyDangerous Safety = "dangerous"
	// SafetyUnknown is assigned only to the degraded straight-line
	// candidate synthesized when the route provider is unavailable.
	SafetyUnknown Safety = "unknown"
)

// NearbyDanger records one hazard a route passes near. DistanceM is the
// first observed distance by scan order, not the minimum over the route,
// rounded to one decimal.
type NearbyDanger struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DistanceM float64 `json:"distance_m"`
	Label     string  `json:"label"`
}

// DangerInfo is the aggregation of hazards near a single route. It holds
// at most one entry per distinct hazard coordinate, even when the route
// passes near the same hazard at multiple vertices.
type DangerInfo struct {
	PassesDanger  bool           `json:"passes_danger"`
	DangerCount   int            `json:"danger_count"`
	NearbyDangers []NearbyDanger `json:"nearby_dangers"`
}

// RouteCandidate is one classified route option returned to the caller.
// Candidates are created fresh per request and never persisted.
type RouteCandidate struct {
	Index       int          `json:"index"`
	Tag         string       `json:"tag"`
	Safety      Safety       `json:"safety"`
	DistanceM   float64      `json:"distance_m"`
	DurationMin float64      `json:"duration_min"`
	Coords      []Coordinate `json:"coords"`
	DangerInfo  DangerInfo   `json:"danger_info"`
}

// SafeHub is a fixed, named waypoint known to be a generally hazard-free
// corridor. Hubs are used only as last-resort detour anchors.
type SafeHub struct {
	Name string
	Lat  float64
	Lng  float64
}

// Coordinate returns the hub's location.
func (h SafeHub) Coordinate() Coordinate {
	return Coordinate{Lat: h.Lat, Lng: h.Lng}
}

// POICandidate is a point of interest returned by the POI lookup provider.
// Ephemeral: consumed within a single pipeline run, never stored.
type POICandidate struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Coordinate returns the POI's location.
func (p POICandidate) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Place is a geocoding search result passed through from the geocoder.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}
