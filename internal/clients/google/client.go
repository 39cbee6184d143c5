package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Google Directions and Geocoding APIs
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	geoUtils   geo.GeoUtils
}

// NewClient creates a Google Maps client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, defaultBaseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation
func NewClientWithHTTPDoer(apiKey, baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		geoUtils:   geo.NewGeoUtils(),
	}
}

// Name identifies the provider in warnings and logs
func (c *Client) Name() string { return "google" }

// FetchRoutes requests walking routes between two points. Alternatives are
// requested when the caller wants more than one candidate.
func (c *Client) FetchRoutes(ctx context.Context, origin, dest geo.Point, alternatives bool) ([]routing.Candidate, error) {
	params := url.Values{}
	params.Set("origin", formatCoordinate(origin))
	params.Set("destination", formatCoordinate(dest))
	params.Set("mode", "walking")
	params.Set("units", "metric")
	params.Set("key", c.apiKey)
	if alternatives {
		params.Set("alternatives", "true")
	}

	var response directionsResponse
	if err := c.getJSON(ctx, "/directions/json?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	if response.Status != "OK" {
		if response.Status == "ZERO_RESULTS" {
			return nil, nil
		}
		return nil, routing.NewProviderError(c.Name(), 0, fmt.Sprintf("directions status %s: %s", response.Status, response.ErrorMessage))
	}

	candidates := make([]routing.Candidate, 0, len(response.Routes))
	for _, route := range response.Routes {
		candidate, err := c.toCandidate(route)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// SearchPlaces resolves a free-text query to labeled points via the Geocoding
// API. Results are informational only and never risk-adjusted.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]routing.SearchResult, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", c.apiKey)

	var response geocodingResponse
	if err := c.getJSON(ctx, "/geocode/json?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	if response.Status != "OK" && response.Status != "ZERO_RESULTS" {
		return nil, routing.NewProviderError(c.Name(), 0, fmt.Sprintf("geocoding status %s: %s", response.Status, response.ErrorMessage))
	}

	results := make([]routing.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, routing.SearchResult{
			Label: r.FormattedAddress,
			Point: geo.Point{
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
		})
	}

	return results, nil
}

// getJSON executes a GET against the API base and decodes the response
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return routing.NewProviderError(c.Name(), resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// toCandidate converts a directions route: decode the overview polyline and
// sum duration/distance across legs
func (c *Client) toCandidate(route directionsRoute) (routing.Candidate, error) {
	points, err := c.geoUtils.DecodePolyline(route.OverviewPolyline.Points)
	if err != nil {
		return routing.Candidate{}, fmt.Errorf("failed to decode route geometry: %w", err)
	}

	var durationSeconds, distanceMeters float64
	for _, leg := range route.Legs {
		durationSeconds += float64(leg.Duration.Value)
		distanceMeters += float64(leg.Distance.Value)
	}

	return routing.Candidate{
		Points:          points,
		DurationMinutes: durationSeconds / 60,
		DistanceMeters:  distanceMeters,
		Source:          c.Name(),
	}, nil
}

func formatCoordinate(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Latitude, p.Longitude)
}

// Google Directions/Geocoding API response structures

type directionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Summary          string          `json:"summary"`
	Legs             []directionsLeg `json:"legs"`
	OverviewPolyline polylineField   `json:"overview_polyline"`
}

type directionsLeg struct {
	Distance valueField `json:"distance"`
	Duration valueField `json:"duration"`
}

type polylineField struct {
	Points string `json:"points"`
}

type valueField struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type geocodingResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Results      []geocodingResult `json:"results"`
}

type geocodingResult struct {
	FormattedAddress string            `json:"formatted_address"`
	Geometry         geocodingGeometry `json:"geometry"`
}

type geocodingGeometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
