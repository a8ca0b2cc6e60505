// Package incidents downloads and parses KML incident feeds (closures,
// hazards, construction) into proximity features that can be correlated
// against a route path.
package incidents

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wayfare/geoengine/internal/lib/geo"
	"github.com/wayfare/geoengine/internal/lib/proximity"
)

// HTTPDoer abstracts the HTTP client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads KML incident feeds and converts placemarks to features
type Client struct {
	httpClient HTTPDoer
	logger     *zap.Logger
}

// NewClient creates an incidents client with a default HTTP configuration
func NewClient(logger *zap.Logger) *Client {
	return NewClientWithHTTPDoer(&http.Client{
		Timeout: 30 * time.Second,
	}, logger)
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation
// (used by tests)
func NewClientWithHTTPDoer(doer HTTPDoer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: doer,
		logger:     logger,
	}
}

// KML document structure, only the elements the feeds actually use.
// Placemarks carry either a Point or a LineString.
type kmlDocument struct {
	XMLName  xml.Name    `xml:"kml"`
	Document kmlFoldered `xml:"Document"`
}

type kmlFoldered struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	StyleURL    string       `xml:"styleUrl"`
	Point       *kmlGeometry `xml:"Point"`
	LineString  *kmlGeometry `xml:"LineString"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

// FetchFeatures downloads a KML feed and converts its placemarks to
// proximity features. The category applies to every feature in the feed;
// placemarks in named folders get the folder name as metadata. Placemarks
// with unparseable geometry are skipped, not fatal.
func (c *Client) FetchFeatures(ctx context.Context, feedURL, category string) ([]proximity.Feature, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download KML: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d downloading KML from %s", resp.StatusCode, feedURL)
	}

	var doc kmlDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	var features []proximity.Feature
	features = c.appendPlacemarks(features, doc.Document.Placemarks, category, "")
	for _, folder := range doc.Document.Folders {
		features = c.appendPlacemarks(features, folder.Placemarks, category, folder.Name)
	}
	return features, nil
}

func (c *Client) appendPlacemarks(features []proximity.Feature, placemarks []kmlPlacemark, category, folder string) []proximity.Feature {
	for _, pm := range placemarks {
		feature, err := c.toFeature(pm, category, folder, len(features))
		if err != nil {
			c.logger.Warn("skipping unparseable placemark",
				zap.String("name", pm.Name),
				zap.Error(err))
			continue
		}
		features = append(features, feature)
	}
	return features
}

func (c *Client) toFeature(pm kmlPlacemark, category, folder string, ordinal int) (proximity.Feature, error) {
	feature := proximity.Feature{
		ID:       fmt.Sprintf("%s-%d", category, ordinal),
		Category: category,
		Metadata: map[string]string{
			"name":        pm.Name,
			"description": stripHTML(pm.Description),
		},
	}
	if folder != "" {
		feature.Metadata["folder"] = folder
	}
	if pm.StyleURL != "" {
		feature.Metadata["style"] = strings.TrimPrefix(pm.StyleURL, "#")
	}

	switch {
	case pm.Point != nil:
		points, err := parseCoordinates(pm.Point.Coordinates)
		if err != nil {
			return proximity.Feature{}, err
		}
		if len(points) == 0 {
			return proximity.Feature{}, fmt.Errorf("point placemark has no coordinates")
		}
		feature.Kind = proximity.FeaturePoint
		feature.Location = points[0]

	case pm.LineString != nil:
		points, err := parseCoordinates(pm.LineString.Coordinates)
		if err != nil {
			return proximity.Feature{}, err
		}
		if len(points) < 2 {
			return proximity.Feature{}, fmt.Errorf("line placemark has fewer than 2 coordinates")
		}
		feature.Kind = proximity.FeatureLine
		feature.Geometry = points

	default:
		return proximity.Feature{}, fmt.Errorf("placemark has no supported geometry")
	}

	return feature, nil
}

// parseCoordinates parses a KML coordinates block: whitespace-separated
// "lon,lat[,alt]" tuples. Altitude is ignored.
func parseCoordinates(raw string) (geo.Path, error) {
	fields := strings.Fields(raw)
	path := make(geo.Path, 0, len(fields))
	for _, field := range fields {
		parts := strings.Split(field, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed coordinate tuple %q", field)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed latitude %q: %w", parts[1], err)
		}
		point, err := geo.NewPoint(lat, lon)
		if err != nil {
			return nil, err
		}
		path = append(path, point)
	}
	return path, nil
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML converts a feed's HTML description to plain text
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
