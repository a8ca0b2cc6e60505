// Package places implements the Place Lookup Provider over the Google
// Places web service API: location-biased nearby search, session-tagged
// autocomplete, and per-place detail lookups.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/wayfare/geoengine/internal/lib/geo"
	"github.com/wayfare/geoengine/internal/lib/search"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the place lookup API. It implements
// search.Provider and classifies every failure into the ProviderError
// taxonomy so the aggregator can tolerate it per call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     *zap.Logger
}

// NewClient creates a place lookup client with the production endpoint
func NewClient(apiKey string, logger *zap.Logger) *Client {
	return NewClientWithHTTPDoer(apiKey, "https://maps.googleapis.com", &http.Client{
		Timeout: 30 * time.Second,
	}, logger)
}

// NewClientWithHTTPDoer creates a client with a custom endpoint and HTTP
// implementation (used by tests)
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: doer,
		logger:     logger,
	}
}

// statusEnvelope is the common response wrapper carrying the API status code
type statusEnvelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry *struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type nearbyResponse struct {
	statusEnvelope
	Results []placeResult `json:"results"`
}

type autocompleteResponse struct {
	statusEnvelope
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type detailsResponse struct {
	statusEnvelope
	Result placeResult `json:"result"`
}

// NearbySearch returns places matching keyword around origin
func (c *Client) NearbySearch(ctx context.Context, origin geo.Point, radiusMeters float64, keyword string) ([]search.Candidate, error) {
	const op = "nearby_search"

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", origin.Latitude, origin.Longitude))
	params.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	params.Set("keyword", keyword)
	params.Set("key", c.apiKey)

	var response nearbyResponse
	if err := c.get(ctx, op, "/maps/api/place/nearbysearch/json", params, &response); err != nil {
		return nil, err
	}
	if err := classifyStatus(op, response.statusEnvelope); err != nil {
		return nil, err
	}

	candidates := make([]search.Candidate, 0, len(response.Results))
	for _, r := range response.Results {
		candidates = append(candidates, toCandidate(r))
	}
	return candidates, nil
}

// Autocomplete returns suggestions for a partial query, optionally biased
// toward a location. All calls within one interaction carry the same
// session token for provider-side billing correlation.
func (c *Client) Autocomplete(ctx context.Context, input, session string, bias *geo.Point) ([]search.Prediction, error) {
	const op = "autocomplete"

	params := url.Values{}
	params.Set("input", input)
	params.Set("sessiontoken", session)
	params.Set("key", c.apiKey)
	if bias != nil {
		params.Set("location", fmt.Sprintf("%.6f,%.6f", bias.Latitude, bias.Longitude))
		params.Set("radius", "50000")
	}

	var response autocompleteResponse
	if err := c.get(ctx, op, "/maps/api/place/autocomplete/json", params, &response); err != nil {
		return nil, err
	}
	if err := classifyStatus(op, response.statusEnvelope); err != nil {
		return nil, err
	}

	predictions := make([]search.Prediction, 0, len(response.Predictions))
	for _, p := range response.Predictions {
		predictions = append(predictions, search.Prediction{
			ExternalRef: p.PlaceID,
			Description: p.Description,
		})
	}
	return predictions, nil
}

// Details resolves the coordinate and thumbnail for a single place
func (c *Client) Details(ctx context.Context, externalRef string) (*search.Detail, error) {
	const op = "details"

	params := url.Values{}
	params.Set("place_id", externalRef)
	params.Set("fields", "geometry,photos")
	params.Set("key", c.apiKey)

	var response detailsResponse
	if err := c.get(ctx, op, "/maps/api/place/details/json", params, &response); err != nil {
		return nil, err
	}
	if err := classifyStatus(op, response.statusEnvelope); err != nil {
		return nil, err
	}

	candidate := toCandidate(response.Result)
	return &search.Detail{
		Coordinate:   candidate.Coordinate,
		ThumbnailRef: candidate.ThumbnailRef,
	}, nil
}

// get executes a GET request and decodes the JSON body, classifying
// transport, HTTP, and decode failures
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return &search.ProviderError{Kind: search.KindMalformed, Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &search.ProviderError{Kind: search.KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("place lookup response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &search.ProviderError{Kind: search.KindRateLimited, Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return &search.ProviderError{Kind: search.KindNotFound, Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &search.ProviderError{Kind: search.KindServerError, Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &search.ProviderError{Kind: search.KindMalformed, Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &search.ProviderError{Kind: search.KindMalformed, Op: op, Err: err}
	}
	return nil
}

// classifyStatus maps API-level status strings onto the error taxonomy.
// ZERO_RESULTS is a successful empty response, not an error.
func classifyStatus(op string, env statusEnvelope) error {
	switch env.Status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		return &search.ProviderError{Kind: search.KindRateLimited, Op: op, Err: fmt.Errorf("status %s: %s", env.Status, env.ErrorMessage)}
	case "NOT_FOUND":
		return &search.ProviderError{Kind: search.KindNotFound, Op: op, Err: fmt.Errorf("status %s: %s", env.Status, env.ErrorMessage)}
	case "UNKNOWN_ERROR":
		return &search.ProviderError{Kind: search.KindServerError, Op: op, Err: fmt.Errorf("status %s: %s", env.Status, env.ErrorMessage)}
	default:
		return &search.ProviderError{Kind: search.KindMalformed, Op: op, Err: fmt.Errorf("status %s: %s", env.Status, env.ErrorMessage)}
	}
}

func toCandidate(r placeResult) search.Candidate {
	candidate := search.Candidate{
		ExternalRef: r.PlaceID,
		Name:        r.Name,
		Address:     r.Vicinity,
	}
	if r.Geometry != nil {
		candidate.Coordinate = &geo.Point{
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		}
	}
	if len(r.Photos) > 0 {
		candidate.ThumbnailRef = r.Photos[0].PhotoReference
	}
	return candidate
}
