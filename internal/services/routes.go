package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/safewalk/server/internal/cache"
	"github.com/safewalk/server/internal/config"
	"github.com/safewalk/server/internal/lib/export"
	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

// PlaceSearcher resolves free-text queries to labeled points
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query string) ([]routing.SearchResult, error)
}

// RoutesService fronts the route computation pipeline with response caching,
// geocoding search and deviation tracking. Each successful computation
// supersedes the previous one: the tracker is re-armed with the new selection
// and the KML export reflects the latest result.
type RoutesService struct {
	planner  *routing.Planner
	searcher PlaceSearcher
	cache    *cache.Cache
	tracker  *routing.Tracker
	config   *config.RoutingConfig

	mu   sync.Mutex
	last *routing.ComputationResult
}

// NewRoutesService creates a new RoutesService
func NewRoutesService(planner *routing.Planner, searcher PlaceSearcher, cacheInstance *cache.Cache, tracker *routing.Tracker, cfg *config.RoutingConfig) *RoutesService {
	return &RoutesService{
		planner:  planner,
		searcher: searcher,
		cache:    cacheInstance,
		tracker:  tracker,
		config:   cfg,
	}
}

// ComputeRoute returns ranked candidates and a recommendation for the
// profile, serving a cached result when one is fresh. The deviation tracker
// is re-armed with the selected route on every call so monitoring always
// follows the result the caller received.
func (s *RoutesService) ComputeRoute(ctx context.Context, origin, dest geo.Point, profile routing.Profile) (*routing.ComputationResult, error) {
	cacheKey := cache.RouteKey(origin, dest, string(profile))

	var cached routing.ComputationResult
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		log.Printf("Cache error: %v", err)
	}

	if found {
		log.Printf("Returning cached route for %s", cacheKey)
		s.install(&cached)
		return &cached, nil
	}

	result, err := s.planner.ComputeRoute(ctx, origin, dest, profile)
	if err != nil {
		// If computation fails but a stale entry is still usable, serve it
		entry, exists, cacheErr := s.cache.GetWithMetadata(cacheKey, &cached)
		if cacheErr == nil && exists && entry != nil && !s.cache.IsVeryStale(cacheKey) {
			log.Printf("Computation failed, returning stale cached route: %v", err)
			s.install(&cached)
			return &cached, nil
		}
		return nil, fmt.Errorf("failed to compute route: %w", err)
	}

	if err := s.cache.Set(cacheKey, result, s.config.CacheTTL, "routes"); err != nil {
		log.Printf("Failed to cache route: %v", err)
	}

	s.install(result)
	return result, nil
}

// Search resolves a free-text query via the geocoding provider, with cached
// responses and stale fallback when the provider is down
func (s *RoutesService) Search(ctx context.Context, query string) ([]routing.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	cacheKey := cache.SearchKey(query)

	var cached []routing.SearchResult
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		log.Printf("Cache error: %v", err)
	}
	if found {
		return cached, nil
	}

	results, err := s.searcher.SearchPlaces(ctx, query)
	if err != nil {
		if _, exists, cacheErr := s.cache.GetWithMetadata(cacheKey, &cached); cacheErr == nil && exists && !s.cache.IsVeryStale(cacheKey) {
			log.Printf("Search failed, returning stale cached results: %v", err)
			return cached, nil
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if err := s.cache.Set(cacheKey, results, s.config.SearchCacheTTL, "search"); err != nil {
		log.Printf("Failed to cache search results: %v", err)
	}

	return results, nil
}

// EvaluateDeviation processes one traveler position fix against the
// currently selected route
func (s *RoutesService) EvaluateDeviation(p geo.Point) routing.DeviationState {
	return s.tracker.Evaluate(p)
}

// ExportKML renders the most recently computed route as KML
func (s *RoutesService) ExportKML() ([]byte, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return nil, fmt.Errorf("no route computed yet")
	}
	return export.RouteKML(last)
}

// LastResult returns the most recent computation, or nil
func (s *RoutesService) LastResult() *routing.ComputationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// install records a result as current and re-arms the deviation tracker
func (s *RoutesService) install(result *routing.ComputationResult) {
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if result.Selected != nil {
		s.tracker.SetRoute(result.Selected.Points)
	} else {
		s.tracker.SetRoute(nil)
	}
}
