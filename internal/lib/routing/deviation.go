package routing

import (
	"sync"

	"github.com/safewalk/server/internal/lib/geo"
)

// DefaultDeviationThresholdMeters is the distance past which a traveler is
// considered off route
const DefaultDeviationThresholdMeters = 50.0

// DeviationSink receives off-route events. Called at most once per
// OnRoute->OffRoute transition.
type DeviationSink func(DeviationState)

// Tracker watches a traveler's position against the currently selected route.
// It holds no timer: evaluation is driven externally on each position fix.
//
// Once off route, the tracker stays off route even if the distance drops back
// under the threshold; the route it measures against is whatever was last
// selected, so only a fresh route selection (SetRoute) restores OnRoute.
type Tracker struct {
	geoUtils  geo.GeoUtils
	threshold float64
	sink      DeviationSink

	mu       sync.Mutex
	route    []geo.Point
	offRoute bool
}

// NewTracker creates a tracker with the given threshold in meters. A
// threshold <= 0 uses the default. sink may be nil.
func NewTracker(thresholdMeters float64, sink DeviationSink) *Tracker {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultDeviationThresholdMeters
	}
	return &Tracker{
		geoUtils:  geo.NewGeoUtils(),
		threshold: thresholdMeters,
		sink:      sink,
	}
}

// SetRoute installs a freshly selected route and resets the tracker to
// OnRoute. Passing nil clears the route; evaluation then reports +Inf
// distance and goes off route on the next fix.
func (t *Tracker) SetRoute(points []geo.Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.route = points
	t.offRoute = false
}

// DistanceToRoute returns the minimum distance in meters from p to the
// current route, or +Inf when the route has fewer than 2 points
func (t *Tracker) DistanceToRoute(p geo.Point) float64 {
	t.mu.Lock()
	route := t.route
	t.mu.Unlock()

	return t.geoUtils.PointToPolyline(p, route)
}

// Evaluate processes one position fix. CPU-only and non-blocking; safe to run
// inline with position delivery.
func (t *Tracker) Evaluate(p geo.Point) DeviationState {
	t.mu.Lock()
	distance := t.geoUtils.PointToPolyline(p, t.route)

	transitioned := false
	if !t.offRoute && distance > t.threshold {
		t.offRoute = true
		transitioned = true
	}

	state := DeviationState{
		Position:        p,
		DistanceMeters:  distance,
		ThresholdMeters: t.threshold,
		OffRoute:        t.offRoute,
	}
	sink := t.sink
	t.mu.Unlock()

	if transitioned && sink != nil {
		sink(state)
	}

	return state
}

// OffRoute reports the current state without evaluating a position
func (t *Tracker) OffRoute() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offRoute
}

// HasRoute reports whether a usable route is installed
func (t *Tracker) HasRoute() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.route) >= 2
}
