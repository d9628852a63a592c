package routing

import "safewalk/internal/types"

// DefaultSafeHubs is the fixed, ordered list of trusted detour anchors.
// Hubs are corridors known to be generally hazard-free; the fallback
// pipeline tries them in this exact order and stops at the first one that
// yields a safe route.
var DefaultSafeHubs = []types.SafeHub{
	{Name: "Zebra Crossing Path", Lat: 40.9148, Lng: -73.1232},
	{Name: "Library Corridor", Lat: 40.9153, Lng: -73.1220},
}
