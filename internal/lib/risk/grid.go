package risk

import (
	"math"

	"github.com/safewalk/server/internal/lib/geo"
)

// Placeholder generation parameters. The synthesized grid exists purely so a
// map has something to render when no real incident snapshot is configured.
const (
	minCellSize  = 0.002 // degrees
	maxCellSize  = 0.03  // degrees
	targetCells  = 20    // cells across the longer axis
	minPadding   = 0.05  // degrees
	synthMinRisk = 0.2
	synthMaxRisk = 0.8
)

// Lookup returns the risk of the first tile containing p, or DefaultRisk when
// no tile matches. Linear scan: tile counts stay in the hundreds, and first
// match on overlap is the intended behavior. A spatial index would slot in
// behind this method if real feeds grow large.
func (g *Grid) Lookup(p geo.Point) float64 {
	for _, tile := range g.tiles {
		if tile.Contains(p) {
			return tile.Risk
		}
	}
	return DefaultRisk
}

// LowestRiskTileIn returns the tile with the lowest risk whose center lies
// inside the box, and whether any such tile exists.
func (g *Grid) LowestRiskTileIn(box geo.BoundingBox) (Tile, bool) {
	var best Tile
	found := false
	for _, tile := range g.tiles {
		if !box.Contains(tile.Center()) {
			continue
		}
		if !found || tile.Risk < best.Risk {
			best = tile
			found = true
		}
	}
	return best, found
}

// NeedsPlaceholder reports whether the grid carries no usable data: either it
// is empty, or it holds a single near-world tile, which snapshot feeds use as
// a "nothing loaded" sentinel.
func (g *Grid) NeedsPlaceholder() bool {
	if len(g.tiles) == 0 {
		return true
	}
	if len(g.tiles) == 1 {
		t := g.tiles[0]
		if t.LatMax-t.LatMin > 170 && t.LngMax-t.LngMin > 350 {
			return true
		}
	}
	return false
}

// SynthesizePlaceholder builds a deterministic pseudo-random grid covering the
// given points. The bounding box is padded by half its span (at least
// minPadding degrees) and subdivided into square cells sized for roughly
// targetCells across the longer axis, clamped to [minCellSize, maxCellSize].
// Cell risk is a fixed function of the cell center so repeated synthesis over
// the same area yields identical tiles.
func SynthesizePlaceholder(points []geo.Point) *Grid {
	if len(points) == 0 {
		return &Grid{synthetic: true}
	}

	utils := geo.NewGeoUtils()
	box := utils.Bounds(points)

	pad := math.Max(math.Max(box.LatSpan(), box.LngSpan())/2, minPadding)
	box = box.Pad(pad)

	longerSpan := math.Max(box.LatSpan(), box.LngSpan())
	cell := longerSpan / targetCells
	cell = math.Max(minCellSize, math.Min(maxCellSize, cell))

	var tiles []Tile
	for lat := box.LatMin; lat < box.LatMax; lat += cell {
		for lng := box.LngMin; lng < box.LngMax; lng += cell {
			tiles = append(tiles, Tile{
				LatMin: lat,
				LatMax: lat + cell,
				LngMin: lng,
				LngMax: lng + cell,
				Risk:   placeholderRisk(lat+cell/2, lng+cell/2),
			})
		}
	}

	return &Grid{tiles: tiles, synthetic: true}
}

// placeholderRisk maps a coordinate to a stable value in [synthMinRisk, synthMaxRisk]
func placeholderRisk(lat, lng float64) float64 {
	v := math.Abs(math.Sin(lat*18) * math.Cos(lng*21))
	return synthMinRisk + v*(synthMaxRisk-synthMinRisk)
}
