package proximity

import "github.com/wayfare/geoengine/internal/lib/geo"

// FeatureKind distinguishes point features (incidents, hazards) from line
// features (closures, construction zones with LineString geometry).
type FeatureKind string

const (
	FeaturePoint FeatureKind = "point"
	FeatureLine  FeatureKind = "line"
)

// Feature is a taggable point or line to be correlated against a route path,
// e.g. a community-reported incident or a third-party closure.
type Feature struct {
	ID       string            `json:"id"`
	Kind     FeatureKind       `json:"kind"`
	Location geo.Point         `json:"location,omitempty"` // point features
	Geometry geo.Path          `json:"geometry,omitempty"` // line features
	Category string            `json:"category"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FeatureDistance pairs a feature with its minimum distance to a reference path
type FeatureDistance struct {
	Feature        Feature `json:"feature"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Filter correlates features against route geometry
type Filter interface {
	// Return the subset of features within thresholdMeters of the path,
	// preserving input order. A path with fewer than 2 points means "no
	// route context yet" and returns all features unchanged.
	FilterNearPath(features []Feature, path geo.Path, thresholdMeters float64) []Feature

	// Annotate each feature with its minimum distance to the path,
	// preserving input order. Features with invalid geometry are skipped.
	AnnotateDistances(features []Feature, path geo.Path) []FeatureDistance
}

// NewFilter is implemented in filter.go
