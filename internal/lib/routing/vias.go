package routing

import (
	"context"
	"log"
	"math"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/risk"
)

// Via synthesis parameters
const (
	minViaOffset      = 0.003 // degrees
	maxViaOffset      = 0.03  // degrees
	viaOffsetFraction = 0.2   // of the origin-destination span
	minDetourMeters   = 75.0  // vias closer to the direct line are no-ops
	maxVias           = 6
)

// ViaSynthesizer builds additional diverse candidates by routing through
// geometric detour points when the provider yields too few alternatives.
type ViaSynthesizer struct {
	provider *TieredProvider
	geoUtils geo.GeoUtils
}

// NewViaSynthesizer creates a synthesizer issuing leg fetches through the
// given provider chain
func NewViaSynthesizer(provider *TieredProvider) *ViaSynthesizer {
	return &ViaSynthesizer{
		provider: provider,
		geoUtils: geo.NewGeoUtils(),
	}
}

// CandidateVias generates detour way-points for the origin-destination pair:
// perpendicular offsets from the midpoint at 0.5x and 1x the base offset in
// both directions, four cardinal offsets, and for risk-aware profiles the
// center of the lowest-risk tile near the pair. Only points that force a
// genuine detour (> minDetourMeters off the direct segment) are kept.
func (v *ViaSynthesizer) CandidateVias(origin, dest geo.Point, grid *risk.Grid, profile Profile) []geo.Point {
	dLat := dest.Latitude - origin.Latitude
	dLng := dest.Longitude - origin.Longitude

	base := math.Max(math.Abs(dLat), math.Abs(dLng)) * viaOffsetFraction
	base = math.Max(minViaOffset, math.Min(maxViaOffset, base))

	mid := v.geoUtils.Midpoint(origin, dest)

	// Unit-ish perpendicular of the origin->dest vector in degree space
	perpLat := -dLng
	perpLng := dLat
	norm := math.Hypot(perpLat, perpLng)
	if norm > 0 {
		perpLat /= norm
		perpLng /= norm
	}

	var vias []geo.Point
	for _, scale := range []float64{0.5, 1.0} {
		vias = append(vias,
			geo.Point{Latitude: mid.Latitude + perpLat*base*scale, Longitude: mid.Longitude + perpLng*base*scale},
			geo.Point{Latitude: mid.Latitude - perpLat*base*scale, Longitude: mid.Longitude - perpLng*base*scale},
		)
	}

	vias = append(vias,
		geo.Point{Latitude: mid.Latitude + base, Longitude: mid.Longitude},
		geo.Point{Latitude: mid.Latitude - base, Longitude: mid.Longitude},
		geo.Point{Latitude: mid.Latitude, Longitude: mid.Longitude + base},
		geo.Point{Latitude: mid.Latitude, Longitude: mid.Longitude - base},
	)

	if grid != nil && (profile == ProfileSafest || profile == ProfileBalanced) {
		box := v.geoUtils.Bounds([]geo.Point{origin, dest}).Pad(base)
		if tile, ok := grid.LowestRiskTileIn(box); ok {
			vias = append(vias, tile.Center())
		}
	}

	// Keep only genuine detours
	filtered := vias[:0]
	for _, via := range vias {
		if v.geoUtils.PointToSegment(via, origin, dest) > minDetourMeters {
			filtered = append(filtered, via)
		}
	}
	if len(filtered) > maxVias {
		filtered = filtered[:maxVias]
	}

	return filtered
}

// Augment builds one candidate per retained via by fetching the two legs
// origin->via and via->dest and concatenating them. Leg failures are
// swallowed; via diversity is best-effort, not guaranteed.
func (v *ViaSynthesizer) Augment(ctx context.Context, origin, dest geo.Point, grid *risk.Grid, profile Profile) []Candidate {
	var extra []Candidate

	for _, via := range v.CandidateVias(origin, dest, grid, profile) {
		if ctx.Err() != nil {
			break
		}

		first, err := v.provider.FetchSingle(ctx, origin, via)
		if err != nil {
			log.Printf("Via leg fetch failed (origin->via): %v", err)
			continue
		}
		second, err := v.provider.FetchSingle(ctx, via, dest)
		if err != nil {
			log.Printf("Via leg fetch failed (via->dest): %v", err)
			continue
		}

		extra = append(extra, joinLegs(first, second))
	}

	return extra
}

// joinLegs concatenates two leg candidates, dropping the duplicated junction
// point when the legs share it
func joinLegs(first, second Candidate) Candidate {
	points := make([]geo.Point, 0, len(first.Points)+len(second.Points))
	points = append(points, first.Points...)

	secondPoints := second.Points
	if len(points) > 0 && len(secondPoints) > 0 && points[len(points)-1] == secondPoints[0] {
		secondPoints = secondPoints[1:]
	}
	points = append(points, secondPoints...)

	return Candidate{
		Points:          points,
		DurationMinutes: first.DurationMinutes + second.DurationMinutes,
		DistanceMeters:  first.DistanceMeters + second.DistanceMeters,
		Source:          "via",
	}
}
