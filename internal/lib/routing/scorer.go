package routing

import (
	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/risk"
)

// Night pruning thresholds: candidates whose average risk exceeds the
// threshold are dropped before scoring.
const (
	nightRiskThreshold = 0.5
	dayRiskThreshold   = 0.8
)

// Scorer ranks candidates by a weighted combination of travel time, distance
// and risk exposure
type Scorer struct {
	geoUtils geo.GeoUtils
}

// NewScorer creates a Scorer
func NewScorer() *Scorer {
	return &Scorer{geoUtils: geo.NewGeoUtils()}
}

// IsNight reports whether the hour falls in the night weighting window
func IsNight(hourOfDay int) bool {
	return hourOfDay >= 20 || hourOfDay <= 6
}

// WeightsFor returns the scoring weights for a profile at the given hour.
// Risk weight rises at night for every profile.
func WeightsFor(profile Profile, hourOfDay int) Weights {
	night := IsNight(hourOfDay)

	switch profile {
	case ProfileFastest:
		w := Weights{AlphaTime: 0.8, BetaDistance: 0.2, GammaRisk: 0.1}
		if night {
			w.GammaRisk = 0.2
		}
		return w
	case ProfileSafest:
		w := Weights{AlphaTime: 0.3, BetaDistance: 0.1, GammaRisk: 0.6}
		if night {
			w.GammaRisk = 0.8
		}
		return w
	default: // balanced
		w := Weights{AlphaTime: 0.5, BetaDistance: 0.2, GammaRisk: 0.3}
		if night {
			w.GammaRisk = 0.5
		}
		return w
	}
}

// AverageRisk computes the length-weighted mean risk over the route: each
// consecutive point pair contributes the grid risk at its midpoint, weighted
// by segment length. Routes with fewer than 2 points report the grid default.
func (s *Scorer) AverageRisk(candidate Candidate, grid *risk.Grid) float64 {
	points := candidate.Points
	if len(points) < 2 || grid == nil {
		return risk.DefaultRisk
	}

	var weightedSum, totalLength float64
	for i := 0; i < len(points)-1; i++ {
		length := s.geoUtils.PointToPoint(points[i], points[i+1])
		if length == 0 {
			continue
		}
		mid := s.geoUtils.Midpoint(points[i], points[i+1])
		weightedSum += grid.Lookup(mid) * length
		totalLength += length
	}

	if totalLength == 0 {
		return risk.DefaultRisk
	}
	return weightedSum / totalLength
}

// Score evaluates the weighted cost of a candidate given its average risk
func Score(candidate Candidate, avgRisk float64, weights Weights) float64 {
	return weights.AlphaTime*candidate.DurationMinutes +
		weights.BetaDistance*(candidate.DistanceMeters/1000) +
		weights.GammaRisk*avgRisk
}

// Select picks the best candidate for the profile at the given hour.
//
// High-risk candidates are pruned first (threshold 0.5 at night, 0.8 in
// daytime). Fastest selects by duration alone among the survivors;
// Balanced and Safest take the weighted-score argmin. If pruning removes
// every candidate, the single lowest-risk candidate is returned anyway and
// allRisky is true so callers can surface the condition.
func (s *Scorer) Select(candidates []Candidate, grid *risk.Grid, profile Profile, hourOfDay int) (selected *Candidate, allRisky bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	threshold := dayRiskThreshold
	if IsNight(hourOfDay) {
		threshold = nightRiskThreshold
	}

	risks := make([]float64, len(candidates))
	for i, c := range candidates {
		risks[i] = s.AverageRisk(c, grid)
	}

	var survivors []int
	for i := range candidates {
		if risks[i] <= threshold {
			survivors = append(survivors, i)
		}
	}

	if len(survivors) == 0 {
		// Every candidate exceeded the threshold. Rather than leaving the
		// selection unset, fall back to the least risky one and flag it.
		best := 0
		for i := 1; i < len(candidates); i++ {
			if risks[i] < risks[best] {
				best = i
			}
		}
		return &candidates[best], true
	}

	weights := WeightsFor(profile, hourOfDay)

	best := survivors[0]
	if profile == ProfileFastest {
		// Duration decides outright; the risk term exists in the weights but
		// is deliberately not part of the Fastest selection.
		for _, i := range survivors[1:] {
			if candidates[i].DurationMinutes < candidates[best].DurationMinutes {
				best = i
			}
		}
	} else {
		bestScore := Score(candidates[best], risks[best], weights)
		for _, i := range survivors[1:] {
			if score := Score(candidates[i], risks[i], weights); score < bestScore {
				best = i
				bestScore = score
			}
		}
	}

	return &candidates[best], false
}

// Fastest returns the minimum-duration candidate regardless of profile or
// pruning. Used for "time saved/lost" comparisons in the UI.
func (s *Scorer) Fastest(candidates []Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].DurationMinutes < candidates[best].DurationMinutes {
			best = i
		}
	}
	return &candidates[best]
}
