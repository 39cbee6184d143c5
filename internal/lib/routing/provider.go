package routing

import (
	"context"
	"fmt"
	"log"

	"github.com/safewalk/server/internal/lib/geo"
)

// Average walking speed in meters per second, used for the synthetic
// straight-line fallback duration.
const walkingSpeedMps = 1.3

// TieredProvider fetches candidates from a primary directions service,
// falling back to a secondary service, and finally to a straight-line
// synthetic candidate so the caller always has a path to render.
type TieredProvider struct {
	primary   Directions
	secondary Directions
	geoUtils  geo.GeoUtils
}

// NewTieredProvider creates a provider chain. secondary may be nil.
func NewTieredProvider(primary, secondary Directions) *TieredProvider {
	return &TieredProvider{
		primary:   primary,
		secondary: secondary,
		geoUtils:  geo.NewGeoUtils(),
	}
}

// FetchRoutes runs the provider chain. Provider failures are recovered by the
// next tier and surfaced as warnings; the error return is reserved for the
// caller's context being cancelled.
func (p *TieredProvider) FetchRoutes(ctx context.Context, origin, dest geo.Point, wantAlternatives bool) ([]Candidate, []Warning, error) {
	var warnings []Warning

	for _, provider := range []Directions{p.primary, p.secondary} {
		if provider == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		candidates, err := provider.FetchRoutes(ctx, origin, dest, wantAlternatives)
		if err != nil {
			log.Printf("Directions provider %s failed: %v", provider.Name(), err)
			warnings = append(warnings, Warning{
				Code:     WarnProviderFailed,
				Message:  err.Error(),
				Provider: provider.Name(),
			})
			continue
		}
		if len(candidates) > 0 {
			return candidates, warnings, nil
		}
	}

	// Both tiers exhausted: synthesize a straight line so the UI can still
	// render a path, and report the condition as a warning.
	fallback := p.straightLine(origin, dest)
	warnings = append(warnings, Warning{
		Code:    WarnNoRouteFound,
		Message: fmt.Sprintf("no walking route found between %.5f,%.5f and %.5f,%.5f; using straight line", origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude),
	})

	return []Candidate{fallback}, warnings, nil
}

// FetchSingle fetches one route through the provider tiers without the
// straight-line fallback. Used for via legs, where a missing leg just means
// the via is skipped.
func (p *TieredProvider) FetchSingle(ctx context.Context, origin, dest geo.Point) (Candidate, error) {
	var lastErr error

	for _, provider := range []Directions{p.primary, p.secondary} {
		if provider == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}

		candidates, err := provider.FetchRoutes(ctx, origin, dest, false)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			return candidates[0], nil
		}
		lastErr = fmt.Errorf("%s returned no routes", provider.Name())
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no directions providers configured")
	}
	return Candidate{}, lastErr
}

// straightLine builds the two-point synthetic candidate
func (p *TieredProvider) straightLine(origin, dest geo.Point) Candidate {
	distance := p.geoUtils.PointToPoint(origin, dest)
	return Candidate{
		Points:          []geo.Point{origin, dest},
		DistanceMeters:  distance,
		DurationMinutes: distance / walkingSpeedMps / 60,
		Source:          "straight_line",
	}
}
