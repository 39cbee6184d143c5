package osrm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const routeFixture = `{
	"code": "Ok",
	"routes": [
		{
			"geometry": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@",
			"duration": 5400,
			"distance": 7200
		}
	]
}`

var (
	origin = geo.Point{Latitude: 38.5, Longitude: -120.2}
	dest   = geo.Point{Latitude: 43.252, Longitude: -126.453}
)

func TestFetchRoutes_Success(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, routeFixture), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	candidates, err := client.FetchRoutes(context.Background(), origin, dest, false)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, "osrm", candidate.Source)
	require.Len(t, candidate.Points, 3)
	assert.InDelta(t, 38.5, candidate.Points[0].Latitude, 1e-5)
	assert.InDelta(t, 90.0, candidate.DurationMinutes, 1e-9)
	assert.Equal(t, 7200.0, candidate.DistanceMeters)

	mockHTTP.AssertExpectations(t)
}

func TestFetchRoutes_RequestFormat(t *testing.T) {
	var captured *http.Request
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*http.Request)
	}).Return(createMockResponse(200, routeFixture), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	_, err := client.FetchRoutes(context.Background(), origin, dest, true)
	require.NoError(t, err)

	require.NotNil(t, captured)
	// Foot profile, lng,lat coordinate order
	assert.Contains(t, captured.URL.Path, "/route/v1/foot/")
	assert.Contains(t, captured.URL.Path, "-120.2")
	query := captured.URL.Query()
	assert.Equal(t, "full", query.Get("overview"))
	assert.Equal(t, "polyline", query.Get("geometries"))
	assert.Equal(t, "true", query.Get("alternatives"))
}

func TestFetchRoutes_NoAlternativesParam(t *testing.T) {
	var captured *http.Request
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*http.Request)
	}).Return(createMockResponse(200, routeFixture), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	_, err := client.FetchRoutes(context.Background(), origin, dest, false)
	require.NoError(t, err)
	assert.Empty(t, captured.URL.Query().Get("alternatives"))
}

func TestFetchRoutes_NoRoute(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, `{"code": "NoRoute", "message": "No route found", "routes": []}`), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	candidates, err := client.FetchRoutes(context.Background(), origin, dest, false)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFetchRoutes_ErrorCode(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, `{"code": "InvalidQuery", "message": "bad coordinates"}`), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	_, err := client.FetchRoutes(context.Background(), origin, dest, false)
	require.Error(t, err)

	var providerErr *routing.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "osrm", providerErr.Provider)
	assert.Contains(t, providerErr.Body, "InvalidQuery")
}

func TestFetchRoutes_HTTPError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(502, "bad gateway"), nil)

	client := NewClientWithHTTPDoer("https://osrm.example.com", mockHTTP)

	_, err := client.FetchRoutes(context.Background(), origin, dest, false)
	require.Error(t, err)

	var providerErr *routing.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, 502, providerErr.StatusCode)
}
