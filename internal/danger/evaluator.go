package danger

import (
	"math"

	"safewalk/internal/geo"
	"safewalk/internal/types"
)

// Evaluate computes which hazards in the snapshot a route passes near.
//
// Vertices and hazards are both scanned in order. A hazard is recorded the
// first time any vertex comes strictly closer than proximityM, keyed by
// its exact coordinate string, so each distinct hazard coordinate appears
// at most once in NearbyDangers and the recorded distance is the first
// observed one, not the minimum over the route.
//
// Cost is O(|polyline| x |snapshot|). That is fine for the deployments
// this service targets; a spatial index would be the fix if either side
// grows large, but it must keep the first-observed-distance semantics.
func Evaluate(polyline []types.Coordinate, snapshot []types.DangerPoint, proximityM float64) types.DangerInfo {
	nearby := []types.NearbyDanger{}
	seen := make(map[string]struct{}, len(snapshot))

	for _, vertex := range polyline {
		for _, hazard := range snapshot {
			key := hazard.Coordinate().Key()
			if _, ok := seen[key]; ok {
				continue
			}
			dist := geo.Distance(vertex, hazard.Coordinate())
			if dist < proximityM {
				nearby = append(nearby, types.NearbyDanger{
					Lat:       hazard.Lat,
					Lng:       hazard.Lng,
					DistanceM: math.Round(dist*10) / 10,
					Label:     hazard.Label,
				})
				seen[key] = struct{}{}
			}
		}
	}

	return types.DangerInfo{
		PassesDanger:  len(nearby) > 0,
		DangerCount:   len(nearby),
		NearbyDangers: nearby,
	}
}
