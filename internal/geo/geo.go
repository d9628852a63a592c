// Package geo provides great-circle distance math and polyline utilities
// for the danger evaluation and routing layers. All functions are pure.
package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"

	"safewalk/internal/types"
)

// earthRadiusM is the mean Earth radius in meters used by the haversine
// formula. Downstream proximity thresholds are calibrated against this
// value, so it must not change.
const earthRadiusM = 6371000

// Distance returns the haversine great-circle distance between two
// coordinates in meters.
func Distance(a, b types.Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLength returns the total length of a polyline in meters, summing
// consecutive-vertex haversine distances. Polylines with fewer than two
// vertices have zero length.
func PathLength(coords []types.Coordinate) float64 {
	total := 0.0
	for i := 0; i < len(coords)-1; i++ {
		total += Distance(coords[i], coords[i+1])
	}
	return total
}

// Midpoint returns the arithmetic midpoint of two coordinates. Adequate
// for the short pedestrian distances this service operates over; not a
// spherical midpoint.
func Midpoint(a, b types.Coordinate) types.Coordinate {
	return types.Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}

// RoundCoord rounds a coordinate component to 6 decimal places (~11 cm),
// the precision at which hazard reports are stored.
func RoundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// DecodePolyline decodes a Google encoded polyline into a coordinate
// sequence.
func DecodePolyline(encoded string) ([]types.Coordinate, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	pairs, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	coords := make([]types.Coordinate, len(pairs))
	for i, pair := range pairs {
		coords[i] = types.Coordinate{Lat: pair[0], Lng: pair[1]}
		if !coords[i].Valid() {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}
	return coords, nil
}
