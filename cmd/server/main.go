package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dpup/prefab"

	"github.com/safewalk/server/internal/cache"
	"github.com/safewalk/server/internal/clients/google"
	"github.com/safewalk/server/internal/clients/osrm"
	"github.com/safewalk/server/internal/config"
	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/risk"
	"github.com/safewalk/server/internal/lib/routing"
	"github.com/safewalk/server/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// Initialize cache with periodic cleanup
	cacheInstance := cache.New()
	cacheInstance.StartPeriodicCleanup(context.Background(), 10*time.Minute)

	// Initialize external API clients
	if appConfig.Routing.Google.APIKey == "" {
		log.Printf("Google API key not configured; relying on OSRM and straight-line fallback")
	}
	googleClient := google.NewClient(appConfig.Routing.Google.APIKey)
	osrmClient := osrm.NewClient(appConfig.Routing.OSRM.BaseURL)

	// Load the risk snapshot; an empty path yields an empty grid and the
	// planner synthesizes placeholder coverage on demand
	grid, err := risk.LoadSnapshotFile(appConfig.Risk.SnapshotPath)
	if err != nil {
		log.Fatalf("Failed to load risk snapshot: %v", err)
	}
	store := risk.NewStore(grid)
	log.Printf("Risk grid loaded: %d tiles", grid.Len())

	// Wire the computation pipeline
	planner := routing.NewPlanner(routing.NewTieredProvider(googleClient, osrmClient), store)
	tracker := routing.NewTracker(appConfig.Deviation.ThresholdMeters, func(state routing.DeviationState) {
		log.Printf("Deviation alert: %.1fm from route (threshold %.1fm)",
			state.DistanceMeters, state.ThresholdMeters)
	})

	routesService := services.NewRoutesService(planner, googleClient, cacheInstance, tracker, &appConfig.Routing)

	// The monitor polls the last position reported over the API
	feed := &positionFeed{}
	monitor := services.NewDeviationMonitor(tracker, feed.latest, appConfig.Deviation.PollInterval)
	if err := monitor.Start(context.Background()); err != nil {
		log.Printf("Failed to start deviation monitor: %v", err)
	}

	log.Printf("Walking route server starting")

	handlers := newAPIHandlers(routesService, feed)
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/route", handlers.route),
		prefab.WithHTTPHandlerFunc("/api/v1/route/kml", handlers.routeKML),
		prefab.WithHTTPHandlerFunc("/api/v1/search", handlers.search),
		prefab.WithHTTPHandlerFunc("/api/v1/deviation", handlers.deviation),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system
// Configuration is loaded from prefab.yaml and environment variables with PF__ prefix
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("routing", &appConfig.Routing); err != nil {
		log.Fatalf("Failed to unmarshal routing section: %v", err)
	}
	if err := prefab.Config.Unmarshal("risk", &appConfig.Risk); err != nil {
		log.Fatalf("Failed to unmarshal risk section: %v", err)
	}
	if err := prefab.Config.Unmarshal("deviation", &appConfig.Deviation); err != nil {
		log.Fatalf("Failed to unmarshal deviation section: %v", err)
	}

	return appConfig
}

// positionFeed holds the most recent traveler position reported over the API
// for the deviation monitor to poll
type positionFeed struct {
	mu       sync.Mutex
	position geo.Point
	hasFix   bool
}

func (f *positionFeed) report(p geo.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
	f.hasFix = true
}

func (f *positionFeed) latest(ctx context.Context) (geo.Point, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, f.hasFix
}

// apiHandlers exposes the routes service over plain JSON endpoints
type apiHandlers struct {
	routes *services.RoutesService
	feed   *positionFeed
}

func newAPIHandlers(routes *services.RoutesService, feed *positionFeed) *apiHandlers {
	return &apiHandlers{routes: routes, feed: feed}
}

type routeRequest struct {
	Origin      geo.Point `json:"origin"`
	Destination geo.Point `json:"destination"`
	Profile     string    `json:"profile"`
}

type deviationRequest struct {
	Position geo.Point `json:"position"`
}

func (h *apiHandlers) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.routes.ComputeRoute(r.Context(), req.Origin, req.Destination, routing.ParseProfile(req.Profile))
	if err != nil {
		if errors.Is(err, routing.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Route computation failed: %v", err)
		http.Error(w, "route computation failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, result)
}

func (h *apiHandlers) routeKML(w http.ResponseWriter, r *http.Request) {
	data, err := h.routes.ExportKML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write KML response", "error", err)
	}
}

func (h *apiHandlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	results, err := h.routes.Search(r.Context(), query)
	if err != nil {
		log.Printf("Search failed: %v", err)
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]interface{}{"results": results})
}

func (h *apiHandlers) deviation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req deviationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.feed.report(req.Position)
	state := h.routes.EvaluateDeviation(req.Position)
	writeJSON(w, state)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>safewalk</title>
    <style>
        body {
            font-family: 'Courier New', Consolas, monospace;
            background: #000;
            color: #0f0;
            padding: 20px;
            line-height: 1.4;
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">safewalk</span>

Risk-aware walking route API. Computes pedestrian routes ranked by a
blend of travel time, distance and area risk.

<span class="header">API Endpoints:</span>

  POST /api/v1/route          - Compute ranked walking routes
  GET  /api/v1/route/kml      - Export the last computed route as KML
  GET  /api/v1/search?q=...   - Resolve a place name to coordinates
  POST /api/v1/deviation      - Report a position fix, get deviation state

<span class="header">Example Usage:</span>
  curl -X POST /api/v1/route -d '{"origin":{"lat":38.0674,"lng":-120.5402},"destination":{"lat":38.1327,"lng":-120.4606},"profile":"balanced"}'
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
