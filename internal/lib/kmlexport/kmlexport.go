// Package kmlexport renders a selected route and its nearby features as a
// KML document, for sharing trips with external mapping tools.
package kmlexport

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml/v2"

	"github.com/wayfare/geoengine/internal/lib/geo"
	"github.com/wayfare/geoengine/internal/lib/proximity"
)

// Document is the exportable view of a trip: the route geometry plus the
// features annotated with their distance to it.
type Document struct {
	Name     string
	Route    geo.Path
	Features []proximity.FeatureDistance
}

// Write renders the document as indented KML
func Write(w io.Writer, doc Document) error {
	if len(doc.Route) < 2 {
		return fmt.Errorf("route must have at least 2 points, got %d", len(doc.Route))
	}

	children := []kml.Element{
		kml.Name(doc.Name),
		kml.Placemark(
			kml.Name("Route"),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(toCoordinates(doc.Route)...),
			),
		),
	}

	for _, fd := range doc.Features {
		children = append(children, featurePlacemark(fd))
	}

	k := kml.KML(kml.Document(children...))
	return k.WriteIndent(w, "", "  ")
}

func featurePlacemark(fd proximity.FeatureDistance) kml.Element {
	f := fd.Feature
	name := f.Metadata["name"]
	if name == "" {
		name = f.ID
	}
	description := fmt.Sprintf("%s, %.0fm from route", f.Category, fd.DistanceMeters)
	if text := f.Metadata["description"]; text != "" {
		description = fmt.Sprintf("%s: %s", description, text)
	}

	var geometry kml.Element
	if f.Kind == proximity.FeatureLine {
		geometry = kml.LineString(
			kml.Tessellate(true),
			kml.Coordinates(toCoordinates(f.Geometry)...),
		)
	} else {
		geometry = kml.Point(
			kml.Coordinates(kml.Coordinate{Lon: f.Location.Longitude, Lat: f.Location.Latitude}),
		)
	}

	return kml.Placemark(
		kml.Name(name),
		kml.Description(description),
		geometry,
	)
}

func toCoordinates(path geo.Path) []kml.Coordinate {
	coordinates := make([]kml.Coordinate, len(path))
	for i, p := range path {
		coordinates[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
	}
	return coordinates
}
