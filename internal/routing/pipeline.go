// Package routing implements the danger-aware route selection pipeline:
// candidate routes are requested from the route provider, scored against
// the hazard snapshot, and, when nothing safe comes back, alternate
// routes are manufactured through fixed safe hubs and then through nearby
// points of interest before giving up.
package routing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"safewalk/internal/danger"
	"safewalk/internal/external"
	"safewalk/internal/geo"
	"safewalk/internal/types"
)

// Stage-assigned display tags. Safe candidates are re-tagged during
// finalization; dangerous and unknown candidates keep these.
const (
	tagDangerous = "Fastest (hazard zone)"
	tagSafe      = "Safe Route"
	tagDegraded  = "Direct Path (provider unavailable)"

	tagRecommended     = "Recommended"
	tagSafeAlternative = "Safe Alternative"
)

// Index offsets marking which fallback stage produced a candidate. The
// final ordering is decided by the safety/distance sort, not by index;
// the offsets just keep indices unique and stage-attributable.
const (
	hubIndexBase = 500
	poiIndexBase = 1000
)

// POICategories is the Places type filter used for detour anchors.
const POICategories = "university|point_of_interest|park|establishment"

// Options carries the tunable routing parameters, populated from
// config.RoutingConfig.
type Options struct {
	ProximityM       float64
	POIRadiusM       float64
	MaxPOIDetours    int
	WalkSpeedMPerMin float64
}

// Planner runs the three-stage fallback pipeline. External calls are
// issued strictly sequentially, each bounded by the provider client's own
// per-call timeout; any external failure is recovered locally and never
// aborts the computation.
type Planner struct {
	routes   external.RouteProvider
	poi      external.POILookup
	safeHubs []types.SafeHub
	opts     Options
	logger   *slog.Logger
}

// NewPlanner creates a Planner. poi may be nil, in which case Stage C is
// skipped; safeHubs defaults to DefaultSafeHubs when nil.
func NewPlanner(routes external.RouteProvider, poi external.POILookup, safeHubs []types.SafeHub, opts Options, logger *slog.Logger) *Planner {
	if safeHubs == nil {
		safeHubs = DefaultSafeHubs
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		routes:   routes,
		poi:      poi,
		safeHubs: safeHubs,
		opts:     opts,
		logger:   logger.With("component", "route_planner"),
	}
}

// ComputeRoutes produces the final ranked, classified, and tagged set of
// route candidates between start and end against a point-in-time hazard
// snapshot. It always returns at least one candidate: when the route
// provider is unreachable a degraded straight-line path stands in.
//
// The three stages run strictly in order with no backtracking:
//
//	A. provider alternatives (or the degraded straight line),
//	B. fixed safe-hub detours: first safe hub wins, rest untried,
//	C. POI detours around the route midpoint: every safe one is kept.
//
// Stage B's early stop and Stage C's lack of one are intentional and
// affect how many alternatives the user sees; do not unify them.
func (p *Planner) ComputeRoutes(ctx context.Context, start, end types.Coordinate, snapshot []types.DangerPoint) []types.RouteCandidate {
	candidates := p.stagePrimary(ctx, start, end, snapshot)

	sortCandidates(candidates)

	if !anySafe(candidates) && len(snapshot) > 0 {
		candidates = p.stageSafeHubs(ctx, start, end, snapshot, candidates)
	}

	if !anySafe(candidates) && len(snapshot) > 0 {
		candidates = p.stagePOIDetours(ctx, start, end, snapshot, candidates)
	}

	sortCandidates(candidates)
	retagFinal(candidates)
	return candidates
}

// stagePrimary requests all walking alternatives and classifies them.
// When the provider yields nothing usable it synthesizes exactly one
// degraded straight-line candidate with unknown safety.
func (p *Planner) stagePrimary(ctx context.Context, start, end types.Coordinate, snapshot []types.DangerPoint) []types.RouteCandidate {
	var candidates []types.RouteCandidate

	routes, err := p.routes.GetRoutes(ctx, start, end, external.RouteOptions{Alternatives: true})
	if err != nil {
		p.logger.WarnContext(ctx, "primary route request failed, using degraded fallback", "error", err)
	}

	for i, route := range routes {
		info := danger.Evaluate(route.Coords, snapshot, p.opts.ProximityM)
		tag, safety := tagSafe, types.SafetySafe
		if info.PassesDanger {
			tag, safety = tagDangerous, types.SafetyDangerous
		}
		candidates = append(candidates, types.RouteCandidate{
			Index:       i,
			Tag:         tag,
			Safety:      safety,
			DistanceM:   math.Round(route.DistanceM),
			DurationMin: round1(route.DurationS / 60),
			Coords:      route.Coords,
			DangerInfo:  info,
		})
	}

	if len(candidates) == 0 {
		straight := []types.Coordinate{start, end}
		dist := math.Round(geo.PathLength(straight))
		candidates = append(candidates, types.RouteCandidate{
			Index:       0,
			Tag:         tagDegraded,
			Safety:      types.SafetyUnknown,
			DistanceM:   dist,
			DurationMin: round1(dist / p.opts.WalkSpeedMPerMin),
			Coords:      straight,
			DangerInfo:  danger.Evaluate(straight, snapshot, p.opts.ProximityM),
		})
	}
	return candidates
}

// stageSafeHubs iterates the fixed hub list in order and appends the
// first safe detour found. Remaining hubs are not tried even if they
// might also succeed.
func (p *Planner) stageSafeHubs(ctx context.Context, start, end types.Coordinate, snapshot []types.DangerPoint, candidates []types.RouteCandidate) []types.RouteCandidate {
	for _, hub := range p.safeHubs {
		detour, ok := p.detourVia(ctx, start, end, hub.Coordinate(), snapshot)
		if !ok {
			continue
		}
		detour.Index = hubIndexBase + len(candidates)
		detour.Tag = "Via " + hub.Name
		candidates = append(candidates, detour)

		p.logger.InfoContext(ctx, "safe hub detour found", "hub", hub.Name)
		break
	}
	return candidates
}

// stagePOIDetours queries points of interest around the route midpoint,
// filters out any POI that itself sits near a hazard, and tries a detour
// through each of the first MaxPOIDetours qualifying ones. Unlike Stage B
// there is no early stop: every safe detour is kept.
func (p *Planner) stagePOIDetours(ctx context.Context, start, end types.Coordinate, snapshot []types.DangerPoint, candidates []types.RouteCandidate) []types.RouteCandidate {
	if p.poi == nil {
		return candidates
	}

	mid := geo.Midpoint(start, end)
	pois, err := p.poi.NearbySearch(ctx, mid, p.opts.POIRadiusM, POICategories)
	if err != nil {
		p.logger.WarnContext(ctx, "poi lookup failed, skipping poi detours", "error", err)
		return candidates
	}

	qualified := 0
	for _, poi := range pois {
		if qualified >= p.opts.MaxPOIDetours {
			break
		}
		if !p.poiClearOfHazards(poi, snapshot) {
			continue
		}
		qualified++

		detour, ok := p.detourVia(ctx, start, end, poi.Coordinate(), snapshot)
		if !ok {
			continue
		}
		detour.Index = poiIndexBase + len(candidates)
		detour.Tag = "Via " + poi.Name
		candidates = append(candidates, detour)

		p.logger.InfoContext(ctx, "poi detour found", "poi", poi.Name)
	}
	return candidates
}

// detourVia requests a single-waypoint route and returns it as a safe
// candidate, or ok=false when the call failed or the detour still passes
// a hazard. Distance/duration are the provider's figures.
func (p *Planner) detourVia(ctx context.Context, start, end, via types.Coordinate, snapshot []types.DangerPoint) (types.RouteCandidate, bool) {
	routes, err := p.routes.GetRoutes(ctx, start, end, external.RouteOptions{Via: &via})
	if err != nil {
		p.logger.WarnContext(ctx, "detour route request failed", "error", err)
		return types.RouteCandidate{}, false
	}
	if len(routes) == 0 {
		return types.RouteCandidate{}, false
	}

	route := routes[0]
	info := danger.Evaluate(route.Coords, snapshot, p.opts.ProximityM)
	if info.PassesDanger {
		return types.RouteCandidate{}, false
	}

	return types.RouteCandidate{
		Safety:      types.SafetySafe,
		DistanceM:   math.Round(route.DistanceM),
		DurationMin: round1(route.DurationS / 60),
		Coords:      route.Coords,
		DangerInfo:  info,
	}, true
}

// poiClearOfHazards reports whether the POI's own location is farther
// than the proximity threshold from every hazard in the snapshot.
func (p *Planner) poiClearOfHazards(poi types.POICandidate, snapshot []types.DangerPoint) bool {
	for _, hazard := range snapshot {
		if geo.Distance(poi.Coordinate(), hazard.Coordinate()) < p.opts.ProximityM {
			return false
		}
	}
	return true
}

// sortCandidates orders safe routes first, then by ascending distance.
// The sort is stable so equal candidates keep their stage order.
func sortCandidates(candidates []types.RouteCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := safetyRank(candidates[i].Safety), safetyRank(candidates[j].Safety)
		if si != sj {
			return si < sj
		}
		return candidates[i].DistanceM < candidates[j].DistanceM
	})
}

func safetyRank(s types.Safety) int {
	if s == types.SafetySafe {
		return 0
	}
	return 1
}

// retagFinal rewrites display tags in final order: the first candidate,
// if safe, becomes "Recommended"; every other safe candidate becomes
// "Safe Alternative". Dangerous and unknown candidates keep their
// stage-assigned tags.
func retagFinal(candidates []types.RouteCandidate) {
	for i := range candidates {
		if candidates[i].Safety != types.SafetySafe {
			continue
		}
		if i == 0 {
			candidates[i].Tag = tagRecommended
		} else {
			candidates[i].Tag = tagSafeAlternative
		}
	}
}

func anySafe(candidates []types.RouteCandidate) bool {
	for _, c := range candidates {
		if c.Safety == types.SafetySafe {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
