// Package search merges place lookups from several asynchronous sources into
// a single ranked result list. One Aggregator serves one continuous search
// interaction: it owns the provider session token and the invocation
// sequencing that keeps stale results from surfacing.
package search

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

const (
	defaultNearbyRadiusMeters = 5000.0
	defaultMinQueryLength     = 2
)

// Aggregator orchestrates nearby search, the biased/unbiased autocomplete
// pair, and per-result detail enrichment. Provider failures degrade the
// outcome instead of aborting it.
type Aggregator struct {
	provider Provider
	dist     geo.Distance
	logger   *zap.Logger

	radiusMeters float64
	minQueryLen  int

	mu      sync.Mutex
	session string

	seq atomic.Uint64
}

// NewAggregator creates an Aggregator for one search interaction with a
// fresh session token
func NewAggregator(provider Provider, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		provider:     provider,
		dist:         geo.NewDistance(),
		logger:       logger,
		radiusMeters: defaultNearbyRadiusMeters,
		minQueryLen:  defaultMinQueryLength,
		session:      uuid.NewString(),
	}
}

// SetNearbyRadius configures the nearby-search radius in meters
func (a *Aggregator) SetNearbyRadius(meters float64) {
	if meters > 0 {
		a.radiusMeters = meters
	}
}

// SetMinQueryLength configures the minimum accepted query length
func (a *Aggregator) SetMinQueryLength(n int) {
	if n > 0 {
		a.minQueryLen = n
	}
}

// Session returns the current session correlation token
func (a *Aggregator) Session() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// ConfirmSelection ends the current correlation window after the user picks
// a result and returns the fresh token. Providers bill per session, so the
// token must rotate here.
func (a *Aggregator) ConfirmSelection() string {
	return a.rotateSession()
}

// EndInteraction rotates the session token when the search UI is dismissed
// without a selection
func (a *Aggregator) EndInteraction() string {
	return a.rotateSession()
}

func (a *Aggregator) rotateSession() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = uuid.NewString()
	return a.session
}

// Search runs one aggregation. The only error it returns is query
// validation; every provider failure is recorded in Outcome.Failures and the
// aggregation continues with whatever sources succeeded. With every source
// failed the outcome carries an empty result list, not an error.
func (a *Aggregator) Search(ctx context.Context, query string, origin *geo.Point) (*Outcome, error) {
	if err := ValidateQuery(query, a.minQueryLen); err != nil {
		return nil, err
	}

	seq := a.seq.Add(1)
	session := a.Session()

	var (
		mu       sync.Mutex
		failures []SourceFailure
		nearby   []Candidate
		biased   []Prediction
		unbiased []Prediction
	)
	record := func(source string, err error) {
		mu.Lock()
		failures = append(failures, SourceFailure{Source: source, Err: err})
		mu.Unlock()
		a.logger.Warn("search source failed",
			zap.String("source", source),
			zap.String("session", session),
			zap.Error(err))
	}

	var wg sync.WaitGroup

	if origin != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := a.provider.NearbySearch(ctx, *origin, a.radiusMeters, query)
			if err != nil {
				record("nearby_search", err)
				return
			}
			nearby = res
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := a.provider.Autocomplete(ctx, query, session, origin)
			if err != nil {
				record("autocomplete_biased", err)
				return
			}
			biased = res
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := a.provider.Autocomplete(ctx, query, session, nil)
		if err != nil {
			record("autocomplete_unbiased", err)
			return
		}
		unbiased = res
	}()

	wg.Wait()

	// Merge biased-first so location-relevant suggestions win the dedup
	suggestions := a.mergePredictions(biased, unbiased)
	a.enrich(ctx, suggestions, origin, record)
	a.rank(suggestions)

	combined := a.combine(nearby, suggestions, origin)

	out := &Outcome{
		Results:  combined,
		Failures: failures,
		Session:  session,
	}
	// A later invocation started while this one was in flight; its results
	// supersede ours
	out.Superseded = a.seq.Load() != seq
	return out, nil
}

// mergePredictions concatenates the autocomplete lists in (biased, unbiased)
// order and collapses duplicates, keeping the first occurrence
func (a *Aggregator) mergePredictions(biased, unbiased []Prediction) []Result {
	seen := make(map[string]bool)
	var merged []Result
	for _, p := range append(append([]Prediction{}, biased...), unbiased...) {
		r := Result{
			ID:          p.ExternalRef,
			Name:        p.Description,
			ExternalRef: p.ExternalRef,
		}
		if r.ID == "" {
			r.ID = p.Description
		}
		key := r.dedupKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, r)
	}
	return merged
}

// enrich resolves coordinates and thumbnails for suggestions that lack them
// and computes distance from origin. Enrichment failures leave the fields
// nil rather than dropping the item.
func (a *Aggregator) enrich(ctx context.Context, results []Result, origin *geo.Point, record func(string, error)) {
	if origin == nil {
		return
	}
	for i := range results {
		if results[i].Coordinate == nil && results[i].ExternalRef != "" {
			detail, err := a.provider.Details(ctx, results[i].ExternalRef)
			if err != nil {
				record("details", err)
			} else if detail != nil {
				results[i].Coordinate = detail.Coordinate
				results[i].ThumbnailRef = detail.ThumbnailRef
			}
		}
		a.computeDistance(&results[i], origin)
	}
}

func (a *Aggregator) computeDistance(r *Result, origin *geo.Point) {
	if r.Coordinate == nil || origin == nil {
		return
	}
	d, err := a.dist.PointToPoint(*origin, *r.Coordinate)
	if err != nil {
		return
	}
	r.DistanceMeters = &d
}

// rank sorts by ascending distance, nil distances last, stable on ties
func (a *Aggregator) rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		di, dj := results[i].DistanceMeters, results[j].DistanceMeters
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}

// combine appends the ranked suggestions onto the distance-ranked nearby
// results, deduplicating so nothing appears twice
func (a *Aggregator) combine(nearby []Candidate, suggestions []Result, origin *geo.Point) []Result {
	var combined []Result
	seen := make(map[string]bool)

	for _, c := range nearby {
		r := Result{
			ID:           c.ExternalRef,
			Name:         c.Name,
			Address:      c.Address,
			ExternalRef:  c.ExternalRef,
			Coordinate:   c.Coordinate,
			ThumbnailRef: c.ThumbnailRef,
		}
		if r.ID == "" {
			r.ID = c.Name
		}
		key := r.dedupKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		a.computeDistance(&r, origin)
		combined = append(combined, r)
	}
	a.rank(combined)

	for _, r := range suggestions {
		if seen[r.dedupKey()] {
			continue
		}
		seen[r.dedupKey()] = true
		combined = append(combined, r)
	}
	return combined
}
