package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// Earth's mean radius in meters
const earthRadius = 6371000

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using the Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) float64 {
	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// PointToSegment calculates the distance in meters from p to the segment a-b.
// Uses an equirectangular projection centered at the segment's mean latitude:
// longitudes are scaled by cos(lat) before projecting, and the projection
// parameter is clamped to [0,1]. Faster than spherical cross-track math and
// accurate to within a few meters at urban/pedestrian scales.
func (g *geoUtils) PointToSegment(p, a, b Point) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return g.PointToPoint(p, a)
	}

	meanLat := (a.Latitude + b.Latitude) / 2 * math.Pi / 180
	lngScale := math.Cos(meanLat)

	ax := a.Longitude * lngScale
	ay := a.Latitude
	bx := b.Longitude * lngScale
	by := b.Latitude
	px := p.Longitude * lngScale
	py := p.Latitude

	dx := bx - ax
	dy := by - ay

	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	nearest := Point{
		Latitude:  ay + t*dy,
		Longitude: (ax + t*dx) / lngScale,
	}

	return g.PointToPoint(p, nearest)
}

// PointToPolyline calculates minimum distance from point to the path.
// Paths with fewer than 2 points have no segments and report +Inf.
func (g *geoUtils) PointToPolyline(point Point, path []Point) float64 {
	if len(path) < 2 {
		return math.Inf(1)
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		distance := g.PointToSegment(point, path[i], path[i+1])
		if distance < minDistance {
			minDistance = distance
		}
	}

	return minDistance
}

// Midpoint returns the planar midpoint of a and b. Route segments are short
// enough that spherical interpolation buys nothing.
func (g *geoUtils) Midpoint(a, b Point) Point {
	return Point{
		Latitude:  (a.Latitude + b.Latitude) / 2,
		Longitude: (a.Longitude + b.Longitude) / 2,
	}
}

// DecodePolyline decodes a Google encoded polyline string to a point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// EncodePolyline encodes a point sequence as a Google encoded polyline string
func (g *geoUtils) EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// Bounds returns the bounding box covering all the given points
func (g *geoUtils) Bounds(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}

	box := BoundingBox{
		LatMin: points[0].Latitude,
		LatMax: points[0].Latitude,
		LngMin: points[0].Longitude,
		LngMax: points[0].Longitude,
	}

	for _, p := range points[1:] {
		box.LatMin = math.Min(box.LatMin, p.Latitude)
		box.LatMax = math.Max(box.LatMax, p.Latitude)
		box.LngMin = math.Min(box.LngMin, p.Longitude)
		box.LngMax = math.Max(box.LngMax, p.Longitude)
	}

	return box
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
