package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

const defaultBaseURL = "https://router.project-osrm.org"

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to an OSRM routing server, used as the secondary
// directions tier. The public demo server needs no API key.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	geoUtils   geo.GeoUtils
}

// NewClient creates an OSRM client. baseURL may be empty to use the default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewClientWithHTTPDoer(baseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation
func NewClientWithHTTPDoer(baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		geoUtils:   geo.NewGeoUtils(),
	}
}

// Name identifies the provider in warnings and logs
func (c *Client) Name() string { return "osrm" }

// FetchRoutes requests foot routes between two points. OSRM's alternatives
// parameter is boolean, so it is sent only when more than one candidate is
// wanted. Geometry comes back as a standard encoded polyline.
func (c *Client) FetchRoutes(ctx context.Context, origin, dest geo.Point, alternatives bool) ([]routing.Candidate, error) {
	// OSRM takes lng,lat pairs in the path
	path := fmt.Sprintf("/route/v1/foot/%f,%f;%f,%f?overview=full&geometries=polyline",
		origin.Longitude, origin.Latitude, dest.Longitude, dest.Latitude)
	if alternatives {
		path += "&alternatives=true"
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, routing.NewProviderError(c.Name(), resp.StatusCode, string(body))
	}

	var response routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Code != "Ok" {
		if response.Code == "NoRoute" {
			return nil, nil
		}
		return nil, routing.NewProviderError(c.Name(), 0, fmt.Sprintf("route code %s: %s", response.Code, response.Message))
	}

	candidates := make([]routing.Candidate, 0, len(response.Routes))
	for _, route := range response.Routes {
		points, err := c.geoUtils.DecodePolyline(route.Geometry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode route geometry: %w", err)
		}
		candidates = append(candidates, routing.Candidate{
			Points:          points,
			DurationMinutes: route.Duration / 60,
			DistanceMeters:  route.Distance,
			Source:          c.Name(),
		})
	}

	return candidates, nil
}

// OSRM route service response structures

type routeResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message,omitempty"`
	Routes  []routeEntry `json:"routes"`
}

type routeEntry struct {
	Geometry string  `json:"geometry"`
	Duration float64 `json:"duration"` // seconds
	Distance float64 `json:"distance"` // meters
}
