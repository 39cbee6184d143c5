package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/risk"
)

// ErrInvalidInput indicates a missing or malformed origin/destination.
// No computation is attempted.
var ErrInvalidInput = errors.New("invalid input: origin and destination are required")

// Minimum number of candidates before via synthesis kicks in
const minCandidateDiversity = 3

// Planner runs the route computation pipeline: tiered provider fetch, risk
// grid coverage, via augmentation, scoring and selection. Stateless apart
// from the shared risk grid store; every call returns a fresh immutable
// result stamped with a generation counter so callers can discard superseded
// computations.
type Planner struct {
	provider *TieredProvider
	vias     *ViaSynthesizer
	scorer   *Scorer
	store    *risk.Store
	geoUtils geo.GeoUtils

	generation atomic.Uint64
	now        func() time.Time
}

// NewPlanner wires the pipeline around a provider chain and a risk store
func NewPlanner(provider *TieredProvider, store *risk.Store) *Planner {
	return &Planner{
		provider: provider,
		vias:     NewViaSynthesizer(provider),
		scorer:   NewScorer(),
		store:    store,
		geoUtils: geo.NewGeoUtils(),
		now:      time.Now,
	}
}

// ComputeRoute computes ranked walking candidates and a recommendation for
// the profile. Provider failures degrade through the tiers; the only hard
// errors are invalid input and context cancellation.
func (p *Planner) ComputeRoute(ctx context.Context, origin, dest geo.Point, profile Profile) (*ComputationResult, error) {
	if !validPoint(origin) || !validPoint(dest) {
		return nil, ErrInvalidInput
	}

	generation := p.generation.Add(1)
	log.Printf("Computing route generation %d: %.5f,%.5f -> %.5f,%.5f (%s)",
		generation, origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude, profile)

	candidates, warnings, err := p.provider.FetchRoutes(ctx, origin, dest, true)
	if err != nil {
		return nil, fmt.Errorf("route fetch aborted: %w", err)
	}

	grid := p.ensureGridCoverage(candidates)

	if len(candidates) < minCandidateDiversity {
		extra := p.vias.Augment(ctx, origin, dest, grid, profile)
		if len(extra) > 0 {
			log.Printf("Via synthesis added %d candidates", len(extra))
			candidates = append(candidates, extra...)
		}
	}

	hour := p.now().Hour()

	avgRisks := make([]float64, len(candidates))
	for i, c := range candidates {
		avgRisks[i] = p.scorer.AverageRisk(c, grid)
	}

	selected, allRisky := p.scorer.Select(candidates, grid, profile, hour)
	if allRisky {
		warnings = append(warnings, Warning{
			Code:    WarnAllRoutesRisky,
			Message: "every candidate exceeds the risk threshold; recommending the least risky",
		})
	}
	if grid.Synthetic() {
		warnings = append(warnings, Warning{
			Code:    WarnSyntheticRisk,
			Message: "no risk snapshot loaded; risk values are synthesized placeholders",
		})
	}

	return &ComputationResult{
		Origin:        origin,
		Destination:   dest,
		Profile:       profile,
		Candidates:    candidates,
		AverageRisks:  avgRisks,
		Selected:      selected,
		Fastest:       p.scorer.Fastest(candidates),
		Warnings:      warnings,
		SyntheticRisk: grid.Synthetic(),
		Generation:    generation,
		ComputedAt:    p.now(),
	}, nil
}

// ensureGridCoverage returns the current grid, replacing it with a
// synthesized placeholder over the candidates' bounding box when no real
// snapshot is loaded. Replacement is a single atomic swap; placeholder tiles
// are never blended with snapshot tiles.
func (p *Planner) ensureGridCoverage(candidates []Candidate) *risk.Grid {
	grid := p.store.Grid()
	if !grid.NeedsPlaceholder() {
		return grid
	}

	var points []geo.Point
	for _, c := range candidates {
		points = append(points, c.Points...)
	}
	if len(points) == 0 {
		return grid
	}

	synthesized := risk.SynthesizePlaceholder(points)
	p.store.Replace(synthesized)
	log.Printf("Synthesized placeholder risk grid with %d tiles", synthesized.Len())

	return synthesized
}

// Generation returns the latest computation generation issued
func (p *Planner) Generation() uint64 {
	return p.generation.Load()
}

// Grid exposes the current risk grid snapshot
func (p *Planner) Grid() *risk.Grid {
	return p.store.Grid()
}

func validPoint(p geo.Point) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}
