package search

import (
	"context"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// Candidate is a fully described place returned by a nearby search
type Candidate struct {
	ExternalRef  string     `json:"external_ref"`
	Name         string     `json:"name"`
	Address      string     `json:"address,omitempty"`
	Coordinate   *geo.Point `json:"coordinate,omitempty"`
	ThumbnailRef string     `json:"thumbnail_ref,omitempty"`
}

// Prediction is a lightweight autocomplete suggestion; its coordinate is
// resolved later via a details lookup
type Prediction struct {
	ExternalRef string `json:"external_ref"`
	Description string `json:"description"`
}

// Detail is the enrichment payload for a single place
type Detail struct {
	Coordinate   *geo.Point `json:"coordinate,omitempty"`
	ThumbnailRef string     `json:"thumbnail_ref,omitempty"`
}

// Provider is the external place lookup collaborator. Implementations own
// their timeout and retry policy; every error they return is treated by the
// aggregator as a per-call failure to tolerate, never a reason to abort.
type Provider interface {
	NearbySearch(ctx context.Context, origin geo.Point, radiusMeters float64, keyword string) ([]Candidate, error)
	Autocomplete(ctx context.Context, input, session string, bias *geo.Point) ([]Prediction, error)
	Details(ctx context.Context, externalRef string) (*Detail, error)
}

// Result is a single merged search result. Coordinate and DistanceMeters are
// nil when the place could not be resolved against the origin.
type Result struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address,omitempty"`
	ExternalRef    string     `json:"external_ref,omitempty"`
	Coordinate     *geo.Point `json:"coordinate,omitempty"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
	ThumbnailRef   string     `json:"thumbnail_ref,omitempty"`
}

// dedupKey collapses duplicates across sources: external reference when
// present, display name otherwise
func (r Result) dedupKey() string {
	if r.ExternalRef != "" {
		return r.ExternalRef
	}
	return r.Name
}

// SourceFailure records one tolerated lookup failure for diagnostics
type SourceFailure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

// Outcome is the product of one aggregation. Superseded is set when a newer
// invocation started before this one finished; callers drop such outcomes so
// only the most recent invocation's results are surfaced.
type Outcome struct {
	Results    []Result        `json:"results"`
	Failures   []SourceFailure `json:"failures,omitempty"`
	Session    string          `json:"session"`
	Superseded bool            `json:"superseded"`
}

// Degraded reports whether any source failed while producing this outcome
func (o *Outcome) Degraded() bool {
	return len(o.Failures) > 0
}
