// Package export renders computed routes in interchange formats for map
// overlay tools.
package export

import (
	"bytes"
	"fmt"

	"github.com/twpayne/go-kml"

	"github.com/safewalk/server/internal/lib/geo"
	"github.com/safewalk/server/internal/lib/routing"
)

// RouteKML renders a computation result as a KML document: one LineString per
// candidate plus origin and destination placemarks. The selected candidate is
// labeled as the recommendation.
func RouteKML(result *routing.ComputationResult) ([]byte, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no route to export")
	}

	children := []kml.Element{
		kml.Name(fmt.Sprintf("Walking route (%s)", result.Profile)),
		pointPlacemark("Origin", result.Origin),
		pointPlacemark("Destination", result.Destination),
	}

	for i, candidate := range result.Candidates {
		name := fmt.Sprintf("Candidate %d (%s)", i+1, candidate.Source)
		if result.Selected != nil && sameCandidate(candidate, *result.Selected) {
			name = fmt.Sprintf("Recommended (%s)", candidate.Source)
		}

		var risk string
		if i < len(result.AverageRisks) {
			risk = fmt.Sprintf(", avg risk %.2f", result.AverageRisks[i])
		}
		description := fmt.Sprintf("%.1f min, %.0f m%s",
			candidate.DurationMinutes, candidate.DistanceMeters, risk)

		children = append(children, kml.Placemark(
			kml.Name(name),
			kml.Description(description),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(toCoordinates(candidate.Points)...),
			),
		))
	}

	doc := kml.KML(kml.Document(children...))

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to render KML: %w", err)
	}

	return buf.Bytes(), nil
}

func pointPlacemark(name string, p geo.Point) kml.Element {
	return kml.Placemark(
		kml.Name(name),
		kml.Point(
			kml.Coordinates(kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}),
		),
	)
}

func toCoordinates(points []geo.Point) []kml.Coordinate {
	coords := make([]kml.Coordinate, len(points))
	for i, p := range points {
		coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}
	return coords
}

func sameCandidate(a, b routing.Candidate) bool {
	if a.Source != b.Source || len(a.Points) != len(b.Points) {
		return false
	}
	return a.DurationMinutes == b.DurationMinutes && a.DistanceMeters == b.DistanceMeters
}
