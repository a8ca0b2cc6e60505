package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// Orchard Road corridor, Singapore
var referencePath = geo.Path{
	{Latitude: 1.3048, Longitude: 103.8318},
	{Latitude: 1.3019, Longitude: 103.8365},
	{Latitude: 1.2998, Longitude: 103.8452},
}

func TestFilter_PointFeatures(t *testing.T) {
	f := NewFilter()

	features := []Feature{
		{ID: "on-route", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3033, Longitude: 103.8342}, Category: "accident"},
		{ID: "far-away", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3644, Longitude: 103.9915}, Category: "hazard"},
		{ID: "nearby", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3010, Longitude: 103.8370}, Category: "police"},
	}

	matched := f.FilterNearPath(features, referencePath, 300)
	require.Len(t, matched, 2)
	assert.Equal(t, "on-route", matched[0].ID)
	assert.Equal(t, "nearby", matched[1].ID, "input order must be preserved")
}

func TestFilter_LineFeatures(t *testing.T) {
	f := NewFilter()

	features := []Feature{
		{
			ID:   "closure-crossing",
			Kind: FeatureLine,
			Geometry: geo.Path{
				{Latitude: 1.3300, Longitude: 103.8600}, // far vertex
				{Latitude: 1.3020, Longitude: 103.8366}, // vertex on the corridor
			},
			Category: "closure",
		},
		{
			ID:   "closure-elsewhere",
			Kind: FeatureLine,
			Geometry: geo.Path{
				{Latitude: 1.3500, Longitude: 103.9000},
				{Latitude: 1.3600, Longitude: 103.9100},
			},
			Category: "closure",
		},
		{
			ID:       "closure-empty",
			Kind:     FeatureLine,
			Category: "closure",
		},
	}

	matched := f.FilterNearPath(features, referencePath, 300)
	require.Len(t, matched, 1)
	assert.Equal(t, "closure-crossing", matched[0].ID, "any vertex within threshold should match")
}

func TestFilter_ShortPathIsIdentity(t *testing.T) {
	f := NewFilter()

	features := []Feature{
		{ID: "a", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3, Longitude: 103.8}},
		{ID: "b", Kind: FeaturePoint, Location: geo.Point{Latitude: 40.0, Longitude: -70.0}},
	}

	for _, path := range []geo.Path{nil, {}, {{Latitude: 1.3, Longitude: 103.8}}} {
		matched := f.FilterNearPath(features, path, 300)
		assert.Equal(t, features, matched, "path without segments must return input unchanged")
	}
}

func TestFilter_InvalidFeatureExcluded(t *testing.T) {
	f := NewFilter()

	features := []Feature{
		{ID: "bad", Kind: FeaturePoint, Location: geo.Point{Latitude: 200, Longitude: 500}},
	}
	matched := f.FilterNearPath(features, referencePath, 300)
	assert.Empty(t, matched)
}

func TestFilter_AnnotateDistances(t *testing.T) {
	f := NewFilter()

	features := []Feature{
		{ID: "far", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3200, Longitude: 103.8600}},
		{ID: "close", Kind: FeaturePoint, Location: geo.Point{Latitude: 1.3030, Longitude: 103.8340}},
		{ID: "bad", Kind: FeaturePoint, Location: geo.Point{Latitude: 999, Longitude: 999}},
	}

	annotated := f.AnnotateDistances(features, referencePath)
	require.Len(t, annotated, 2, "invalid features are skipped")
	assert.Equal(t, "far", annotated[0].Feature.ID, "annotation preserves input order")
	assert.Greater(t, annotated[0].DistanceMeters, annotated[1].DistanceMeters)

	SortByDistance(annotated)
	assert.Equal(t, "close", annotated[0].Feature.ID)
}
