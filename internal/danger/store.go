// Package danger holds the hazard-report store and the route danger
// evaluator. The store is append-only: points are added or the whole set
// is wiped, never individually mutated.
package danger

import (
	"context"

	"safewalk/internal/types"
)

// Store is the hazard-report store contract. Implementations must make
// Add atomic with respect to concurrent Add/Clear calls: a backing medium
// that is read-whole/modify/write-whole (the JSON file store) would
// otherwise silently drop concurrent writes.
//
// Add performs no deduplication; repeated identical reports create
// repeated records. A dedup radius exists in configuration but is
// deliberately unused (see config.RoutingConfig.DedupRadiusM).
type Store interface {
	// Add rounds the coordinates to 6 decimal places, stamps the current
	// time and the fixed label, appends the record, and returns it.
	Add(ctx context.Context, lat, lng float64) (*types.DangerPoint, error)

	// List returns a point-in-time snapshot of all hazard reports. The
	// returned slice is owned by the caller; later store mutations do not
	// affect it.
	List(ctx context.Context) ([]types.DangerPoint, error)

	// Clear wipes the entire store.
	Clear(ctx context.Context) error
}
