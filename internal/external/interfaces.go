// Package external provides the anti-corruption layer between SafeWalk
// domain logic and third-party provider APIs (Google Directions, Google
// Places, Nominatim). All outbound HTTP calls route through BaseClient,
// which enforces circuit breaking, bounded retries, and error mapping.
package external

import (
	"context"

	"safewalk/internal/types"
)

// Route is one candidate path returned by a route provider. DistanceM and
// DurationS are the provider's own figures, not recomputed locally.
type Route struct {
	Coords    []types.Coordinate
	DistanceM float64
	DurationS float64
}

// RouteOptions modifies a route request.
type RouteOptions struct {
	// Alternatives requests multiple route variants where the provider
	// supports it. Ignored when Via is set.
	Alternatives bool

	// Via forces the route through an intermediate coordinate. Used by
	// the fallback stages to anchor detours on safe hubs and POIs.
	Via *types.Coordinate
}

// RouteProvider supplies candidate walking paths between two points.
// Failures surface as a single error, never partial results.
type RouteProvider interface {
	GetRoutes(ctx context.Context, origin, destination types.Coordinate, opts RouteOptions) ([]Route, error)
}

// POILookup supplies points of interest near a location, ordered by
// provider relevance.
type POILookup interface {
	NearbySearch(ctx context.Context, center types.Coordinate, radiusM float64, categories string) ([]types.POICandidate, error)
}

// Geocoder resolves free-text queries to places. The /api/search endpoint
// is a straight passthrough over this interface.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]types.Place, error)
}
