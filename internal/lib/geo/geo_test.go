package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoUtils_PointToPoint(t *testing.T) {
	// Angels Camp to Murphys, CA (real route, ~11 km)
	angelscamp := Point{Latitude: 38.0675, Longitude: -120.5436}
	murphys := Point{Latitude: 38.1391, Longitude: -120.4561}

	geoUtils := NewGeoUtils()

	distance := geoUtils.PointToPoint(angelscamp, murphys)
	assert.InDelta(t, 11046, distance, 100, "Distance should be approximately 11.0km")

	// Same point is zero distance
	assert.Equal(t, 0.0, geoUtils.PointToPoint(angelscamp, angelscamp))

	// One degree of longitude at the equator is ~111.2 km
	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 1}
	assert.InDelta(t, 111195, geoUtils.PointToPoint(a, b), 200)
}

func TestGeoUtils_PointToSegment(t *testing.T) {
	geoUtils := NewGeoUtils()

	// North-south segment at the equator, ~1113m long
	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 0.01}

	// Point on the segment reports ~0
	onSegment := Point{Latitude: 0, Longitude: 0.005}
	assert.InDelta(t, 0, geoUtils.PointToSegment(onSegment, a, b), 1)

	// Point offset perpendicular by 0.001 degrees of latitude (~111m)
	offset := Point{Latitude: 0.001, Longitude: 0.005}
	distance := geoUtils.PointToSegment(offset, a, b)
	assert.InDelta(t, 111.2, distance, 111.2*0.05, "Offset distance should be within 5%")

	// Point beyond the segment end clamps to the endpoint
	beyond := Point{Latitude: 0, Longitude: 0.02}
	expected := geoUtils.PointToPoint(beyond, b)
	assert.InDelta(t, expected, geoUtils.PointToSegment(beyond, a, b), 1)

	// Degenerate segment falls back to point distance
	assert.InDelta(t, geoUtils.PointToPoint(offset, a), geoUtils.PointToSegment(offset, a, a), 0.01)
}

func TestGeoUtils_PointToSegment_HighLatitude(t *testing.T) {
	geoUtils := NewGeoUtils()

	// At 60N a degree of longitude is half a degree of latitude; the
	// projection must scale longitude or the perpendicular is wrong.
	a := Point{Latitude: 60, Longitude: 10}
	b := Point{Latitude: 60, Longitude: 10.02}
	p := Point{Latitude: 60.001, Longitude: 10.01}

	distance := geoUtils.PointToSegment(p, a, b)
	assert.InDelta(t, 111.2, distance, 111.2*0.05)
}

func TestGeoUtils_PointToPolyline(t *testing.T) {
	geoUtils := NewGeoUtils()

	path := []Point{
		{Latitude: 38.0675, Longitude: -120.5436},
		{Latitude: 38.1391, Longitude: -120.4561},
		{Latitude: 38.2458, Longitude: -120.3486},
	}

	// A vertex is on the polyline
	assert.InDelta(t, 0, geoUtils.PointToPolyline(path[1], path), 1)

	// An off-path probe reports a positive, finite distance
	probe := Point{Latitude: 38.1000, Longitude: -120.5000}
	distance := geoUtils.PointToPolyline(probe, path)
	assert.Greater(t, distance, 0.0)
	assert.Less(t, distance, 50000.0)

	// Degenerate paths have no segments
	assert.True(t, math.IsInf(geoUtils.PointToPolyline(probe, nil), 1))
	assert.True(t, math.IsInf(geoUtils.PointToPolyline(probe, path[:1]), 1))
}

func TestGeoUtils_Midpoint(t *testing.T) {
	geoUtils := NewGeoUtils()

	a := Point{Latitude: 38.0, Longitude: -120.5}
	b := Point{Latitude: 38.2, Longitude: -120.3}

	mid := geoUtils.Midpoint(a, b)
	assert.InDelta(t, 38.1, mid.Latitude, 1e-9)
	assert.InDelta(t, -120.4, mid.Longitude, 1e-9)
}

func TestGeoUtils_DecodePolyline(t *testing.T) {
	geoUtils := NewGeoUtils()

	// Reference vector from the Google polyline algorithm documentation
	points, err := geoUtils.DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 38.5, points[0].Latitude, 1e-5)
	assert.InDelta(t, -120.2, points[0].Longitude, 1e-5)
	assert.InDelta(t, 40.7, points[1].Latitude, 1e-5)
	assert.InDelta(t, -120.95, points[1].Longitude, 1e-5)
	assert.InDelta(t, 43.252, points[2].Latitude, 1e-5)
	assert.InDelta(t, -126.453, points[2].Longitude, 1e-5)

	// Empty input is rejected
	_, err = geoUtils.DecodePolyline("")
	assert.Error(t, err)
}

func TestGeoUtils_EncodeDecodeRoundTrip(t *testing.T) {
	geoUtils := NewGeoUtils()

	original := []Point{
		{Latitude: 38.5, Longitude: -120.2},
		{Latitude: 40.7, Longitude: -120.95},
		{Latitude: 43.252, Longitude: -126.453},
	}

	encoded := geoUtils.EncodePolyline(original)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := geoUtils.DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(original))
	for i := range original {
		assert.InDelta(t, original[i].Latitude, decoded[i].Latitude, 1e-5)
		assert.InDelta(t, original[i].Longitude, decoded[i].Longitude, 1e-5)
	}
}

func TestGeoUtils_Bounds(t *testing.T) {
	geoUtils := NewGeoUtils()

	box := geoUtils.Bounds([]Point{
		{Latitude: 38.0, Longitude: -120.5},
		{Latitude: 38.2, Longitude: -120.3},
		{Latitude: 37.9, Longitude: -120.4},
	})

	assert.Equal(t, 37.9, box.LatMin)
	assert.Equal(t, 38.2, box.LatMax)
	assert.Equal(t, -120.5, box.LngMin)
	assert.Equal(t, -120.3, box.LngMax)

	assert.True(t, box.Contains(Point{Latitude: 38.0, Longitude: -120.4}))
	assert.False(t, box.Contains(Point{Latitude: 39.0, Longitude: -120.4}))

	padded := box.Pad(0.1)
	assert.InDelta(t, 37.8, padded.LatMin, 1e-9)
	assert.InDelta(t, -120.2, padded.LngMax, 1e-9)
}
