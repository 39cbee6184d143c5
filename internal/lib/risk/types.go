package risk

import (
	"github.com/safewalk/server/internal/lib/geo"
)

// DefaultRisk is returned when no tile covers a point. It means "unknown,
// moderate" and must not be treated as measured data.
const DefaultRisk = 0.3

// Tile represents risk for all points inside an axis-aligned geographic box
type Tile struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LngMin float64 `json:"lngMin"`
	LngMax float64 `json:"lngMax"`
	Risk   float64 `json:"risk"` // [0,1]
}

// Contains reports whether the point lies inside the tile's box (inclusive)
func (t Tile) Contains(p geo.Point) bool {
	return p.Latitude >= t.LatMin && p.Latitude <= t.LatMax &&
		p.Longitude >= t.LngMin && p.Longitude <= t.LngMax
}

// Center returns the midpoint of the tile's box
func (t Tile) Center() geo.Point {
	return geo.Point{
		Latitude:  (t.LatMin + t.LatMax) / 2,
		Longitude: (t.LngMin + t.LngMax) / 2,
	}
}

// Grid is an immutable ordered collection of risk tiles. A grid is never
// mutated after construction; the Store replaces it wholesale.
type Grid struct {
	tiles     []Tile
	synthetic bool
}

// NewGrid creates a grid over the given tiles
func NewGrid(tiles []Tile) *Grid {
	return &Grid{tiles: tiles}
}

// Tiles returns the grid's tiles. Callers must not modify the slice.
func (g *Grid) Tiles() []Tile {
	return g.tiles
}

// Synthetic reports whether this grid was generated by the placeholder
// synthesizer rather than loaded from a real snapshot
func (g *Grid) Synthetic() bool {
	return g.synthetic
}

// Len returns the number of tiles
func (g *Grid) Len() int {
	return len(g.tiles)
}
