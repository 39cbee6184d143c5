package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/safewalk/server/internal/lib/geo"
)

// Profile names a weighting policy for the speed vs risk trade-off
type Profile string

const (
	ProfileFastest  Profile = "fastest"
	ProfileBalanced Profile = "balanced"
	ProfileSafest   Profile = "safest"
)

// ParseProfile maps a request string to a Profile, defaulting to balanced
func ParseProfile(s string) Profile {
	switch Profile(s) {
	case ProfileFastest, ProfileBalanced, ProfileSafest:
		return Profile(s)
	default:
		return ProfileBalanced
	}
}

// Candidate is one possible path between origin and destination. Immutable
// once constructed; candidate lists are replaced wholesale, never patched.
type Candidate struct {
	Points          []geo.Point `json:"points"`
	DurationMinutes float64     `json:"duration_minutes"`
	DistanceMeters  float64     `json:"distance_meters"`
	Source          string      `json:"source"` // provider that produced it
}

// Weights are the scoring multipliers for a profile. Only relative magnitude
// matters for ranking.
type Weights struct {
	AlphaTime    float64 `json:"alpha_time"`
	BetaDistance float64 `json:"beta_distance"`
	GammaRisk    float64 `json:"gamma_risk"`
}

// SearchResult is a geocoding hit: a display label plus a point. Search
// results are not scored or risk-adjusted.
type SearchResult struct {
	Label string    `json:"label"`
	Point geo.Point `json:"point"`
}

// Warning reports a non-fatal degradation alongside an otherwise usable result
type Warning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

// Warning codes surfaced on computation results
const (
	WarnProviderFailed  = "PROVIDER_FAILED"
	WarnNoRouteFound    = "NO_ROUTE_FOUND"
	WarnAllRoutesRisky  = "ALL_ROUTES_RISKY"
	WarnSyntheticRisk   = "SYNTHETIC_RISK_DATA"
)

// ComputationResult is the immutable outcome of a single ComputeRoute call.
// The orchestrating layer owns storage and observer notification; a result is
// fully superseded by the next computation.
type ComputationResult struct {
	Origin        geo.Point   `json:"origin"`
	Destination   geo.Point   `json:"destination"`
	Profile       Profile     `json:"profile"`
	Candidates    []Candidate `json:"candidates"`
	AverageRisks  []float64   `json:"average_risks"` // parallel to Candidates
	Selected      *Candidate  `json:"selected,omitempty"`
	Fastest       *Candidate  `json:"fastest,omitempty"`
	Warnings      []Warning   `json:"warnings,omitempty"`
	SyntheticRisk bool        `json:"synthetic_risk"`
	Generation    uint64      `json:"generation"`
	ComputedAt    time.Time   `json:"computed_at"`
}

// DeviationState is the immutable outcome of a single deviation evaluation
type DeviationState struct {
	Position        geo.Point `json:"position"`
	DistanceMeters  float64   `json:"distance_meters"`
	ThresholdMeters float64   `json:"threshold_meters"`
	OffRoute        bool      `json:"off_route"`
}

// Directions is implemented by external directions provider clients
type Directions interface {
	// FetchRoutes returns walking route candidates between two points.
	// Implementations request provider-side alternatives when alternatives
	// is true and more than one candidate is useful.
	FetchRoutes(ctx context.Context, origin, dest geo.Point, alternatives bool) ([]Candidate, error)

	// Name identifies the provider in warnings and logs
	Name() string
}

// ProviderError reports a non-success status or transport failure from a
// directions or geocoding call
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Body)
}

// NewProviderError builds a ProviderError, truncating oversized bodies
func NewProviderError(provider string, statusCode int, body string) *ProviderError {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	return &ProviderError{Provider: provider, StatusCode: statusCode, Body: body}
}
