package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// BoundingBox represents an axis-aligned geographic rectangle
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LngMin float64 `json:"lng_min"`
	LngMax float64 `json:"lng_max"`
}

// LatSpan returns the latitude extent of the box in degrees
func (b BoundingBox) LatSpan() float64 {
	return b.LatMax - b.LatMin
}

// LngSpan returns the longitude extent of the box in degrees
func (b BoundingBox) LngSpan() float64 {
	return b.LngMax - b.LngMin
}

// Contains reports whether the point lies inside the box (inclusive)
func (b BoundingBox) Contains(p Point) bool {
	return p.Latitude >= b.LatMin && p.Latitude <= b.LatMax &&
		p.Longitude >= b.LngMin && p.Longitude <= b.LngMax
}

// Pad expands the box by the given number of degrees on every side
func (b BoundingBox) Pad(degrees float64) BoundingBox {
	return BoundingBox{
		LatMin: b.LatMin - degrees,
		LatMax: b.LatMax + degrees,
		LngMin: b.LngMin - degrees,
		LngMax: b.LngMax + degrees,
	}
}

// Center returns the midpoint of the box
func (b BoundingBox) Center() Point {
	return Point{
		Latitude:  (b.LatMin + b.LatMax) / 2,
		Longitude: (b.LngMin + b.LngMax) / 2,
	}
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) float64

	// Calculate distance in meters from a point to the segment a-b
	PointToSegment(p, a, b Point) float64

	// Calculate minimum distance from point to an ordered point sequence in meters
	PointToPolyline(point Point, path []Point) float64

	// Midpoint between two points (planar interpolation, adequate at walking scale)
	Midpoint(a, b Point) Point

	// Decode Google encoded polyline string to a point sequence
	DecodePolyline(encoded string) ([]Point, error)

	// Encode a point sequence as a Google encoded polyline string
	EncodePolyline(points []Point) string

	// Bounding box covering all the given points
	Bounds(points []Point) BoundingBox
}

// NewGeoUtils is implemented in geo.go
