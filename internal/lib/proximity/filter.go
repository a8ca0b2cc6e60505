package proximity

import (
	"math"
	"sort"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// filter implements the Filter interface
type filter struct {
	dist geo.Distance
}

// NewFilter creates a new Filter implementation
func NewFilter() Filter {
	return &filter{dist: geo.NewDistance()}
}

// FilterNearPath returns the features within thresholdMeters of any segment
// of path, in input order. Point features match when their location is near
// the path; line features match when any vertex of their geometry is near
// any path segment (pairwise check, acceptable for screen-sized polylines).
func (f *filter) FilterNearPath(features []Feature, path geo.Path, thresholdMeters float64) []Feature {
	// No route context yet: show everything
	if len(path) < 2 {
		return features
	}

	var matched []Feature
	for _, feature := range features {
		if f.featureNearPath(feature, path, thresholdMeters) {
			matched = append(matched, feature)
		}
	}
	return matched
}

// featureNearPath checks a single feature against the reference path
func (f *filter) featureNearPath(feature Feature, path geo.Path, thresholdMeters float64) bool {
	switch feature.Kind {
	case FeatureLine:
		for _, vertex := range feature.Geometry {
			near, err := f.dist.IsNearPath(vertex, path, thresholdMeters)
			if err != nil {
				continue // skip invalid vertices
			}
			if near {
				return true
			}
		}
		return false
	default:
		near, err := f.dist.IsNearPath(feature.Location, path, thresholdMeters)
		if err != nil {
			return false
		}
		return near
	}
}

// AnnotateDistances computes each feature's minimum distance to the path.
// Line features report the minimum over their vertices. Features whose
// geometry yields no valid distance are skipped.
func (f *filter) AnnotateDistances(features []Feature, path geo.Path) []FeatureDistance {
	var annotated []FeatureDistance
	for _, feature := range features {
		dist, ok := f.featureDistance(feature, path)
		if !ok {
			continue
		}
		annotated = append(annotated, FeatureDistance{Feature: feature, DistanceMeters: dist})
	}
	return annotated
}

func (f *filter) featureDistance(feature Feature, path geo.Path) (float64, bool) {
	if feature.Kind == FeatureLine {
		minDist := math.Inf(1)
		for _, vertex := range feature.Geometry {
			d, err := f.dist.PointToPath(vertex, path)
			if err != nil {
				continue
			}
			if d < minDist {
				minDist = d
			}
		}
		return minDist, !math.IsInf(minDist, 1)
	}

	d, err := f.dist.PointToPath(feature.Location, path)
	if err != nil {
		return 0, false
	}
	return d, true
}

// SortByDistance orders annotated features by ascending distance, stable on
// ties so equidistant features keep their input order.
func SortByDistance(annotated []FeatureDistance) {
	sort.SliceStable(annotated, func(i, j int) bool {
		return annotated[i].DistanceMeters < annotated[j].DistanceMeters
	})
}
