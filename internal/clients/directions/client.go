// Package directions fetches pre-computed route geometry from the external
// directions provider. The engine never computes routes itself; it consumes
// the decoded polyline as a geo.Path.
package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the routes computation API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	dist       geo.Distance
}

// Route is a pre-computed route with its decoded geometry
type Route struct {
	Path            geo.Path
	DistanceMeters  int32
	DurationSeconds int32
}

// NewClient creates a directions client with the production endpoint
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, "https://routes.googleapis.com", &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom endpoint and HTTP
// implementation (used by tests)
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: doer,
		dist:       geo.NewDistance(),
	}
}

// ComputeRoute requests a route between origin and destination for the given
// travel mode and decodes its polyline
func (c *Client) ComputeRoute(ctx context.Context, origin, destination geo.Point, mode string) (*Route, error) {
	if mode == "" {
		mode = "DRIVE"
	}

	requestBody := map[string]interface{}{
		"origin": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]interface{}{
					"latitude":  origin.Latitude,
					"longitude": origin.Longitude,
				},
			},
		},
		"destination": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]interface{}{
					"latitude":  destination.Latitude,
					"longitude": destination.Longitude,
				},
			},
		},
		"travelMode": mode,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/directions/v2:computeRoutes", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Field mask is mandatory or the API rejects the request
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var response routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Routes) == 0 {
		return nil, fmt.Errorf("no routes found in response")
	}

	return c.processRoute(response.Routes[0])
}

func (c *Client) processRoute(r routeEntry) (*Route, error) {
	durationSeconds, err := parseDuration(r.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration: %w", err)
	}

	path, err := c.dist.DecodePolyline(r.Polyline.EncodedPolyline)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}

	return &Route{
		Path:            path,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: durationSeconds,
	}, nil
}

// parseDuration parses the provider's duration format like "450s" to seconds
func parseDuration(durationStr string) (int32, error) {
	if durationStr == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if durationStr[len(durationStr)-1] == 's' {
		durationStr = durationStr[:len(durationStr)-1]
	}

	var seconds int32
	_, err := fmt.Sscanf(durationStr, "%d", &seconds)
	return seconds, err
}

type routesResponse struct {
	Routes []routeEntry `json:"routes"`
}

type routeEntry struct {
	Duration       string `json:"duration"`
	DistanceMeters int32  `json:"distanceMeters"`
	Polyline       struct {
		EncodedPolyline string `json:"encodedPolyline"`
	} `json:"polyline"`
}
