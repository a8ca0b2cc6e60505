package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// ErrInvalidCoordinate indicates a latitude/longitude outside the valid
// domain or a non-finite value. Never silently clamped.
var ErrInvalidCoordinate = errors.New("invalid coordinate: latitude must be [-90, 90], longitude must be [-180, 180]")

const (
	// Earth's mean radius in meters
	earthRadius = 6371000.0

	// Meters per degree of latitude (and of longitude at the equator)
	metersPerDegree = earthRadius * math.Pi / 180
)

// distance implements the Distance interface
type distance struct{}

// NewDistance creates a new Distance implementation
func NewDistance() Distance {
	return &distance{}
}

// PointToPoint calculates great-circle distance between two points using the
// Haversine formula
func (d *distance) PointToPoint(a, b Point) (float64, error) {
	if err := validate(a); err != nil {
		return 0, err
	}
	if err := validate(b); err != nil {
		return 0, err
	}

	if a == b {
		return 0, nil
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dlat := (b.Latitude - a.Latitude) * math.Pi / 180
	dlon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c, nil
}

// PointToSegment calculates the distance from p to the nearest point on the
// segment segStart->segEnd using a local equirectangular approximation
// (meters-per-degree scaled by the segment's mean latitude). The projection
// parameter is clamped to [0,1], so the result is distance to the segment,
// not the infinite line. Accurate at city scale only; not valid for
// segments spanning large angular extents.
func (d *distance) PointToSegment(p, segStart, segEnd Point) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	if err := validate(segStart); err != nil {
		return 0, err
	}
	if err := validate(segEnd); err != nil {
		return 0, err
	}

	// Degenerate segment: fall back to great-circle distance
	if segStart == segEnd {
		return d.PointToPoint(p, segStart)
	}

	lat0 := (segStart.Latitude + segEnd.Latitude) / 2 * math.Pi / 180
	mx := metersPerDegree * math.Cos(lat0)
	my := metersPerDegree

	// Local tangent plane with segStart at the origin
	ex := (segEnd.Longitude - segStart.Longitude) * mx
	ey := (segEnd.Latitude - segStart.Latitude) * my
	px := (p.Longitude - segStart.Longitude) * mx
	py := (p.Latitude - segStart.Latitude) * my

	t := (px*ex + py*ey) / (ex*ex + ey*ey)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(px-t*ex, py-t*ey), nil
}

// PointToPath calculates the minimum distance from p to any segment of path.
// A single-point path degrades to point-to-point distance.
func (d *distance) PointToPath(p Point, path Path) (float64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	if len(path) == 0 {
		return 0, errors.New("path has no points")
	}
	if len(path) == 1 {
		return d.PointToPoint(p, path[0])
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		dist, err := d.PointToSegment(p, path[i], path[i+1])
		if err != nil {
			return 0, err
		}
		if dist < minDistance {
			minDistance = dist
		}
	}
	return minDistance, nil
}

// IsNearPath reports whether p is within thresholdMeters of any segment of
// path. A path with fewer than 2 points has no segments and is never near.
func (d *distance) IsNearPath(p Point, path Path, thresholdMeters float64) (bool, error) {
	if err := validate(p); err != nil {
		return false, err
	}
	if len(path) < 2 {
		return false, nil
	}

	for i := 0; i < len(path)-1; i++ {
		dist, err := d.PointToSegment(p, path[i], path[i+1])
		if err != nil {
			return false, err
		}
		if dist <= thresholdMeters {
			return true, nil
		}
	}
	return false, nil
}

// PathLength sums the great-circle lengths of all path segments.
func (d *distance) PathLength(path Path) (float64, error) {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		segment, err := d.PointToPoint(path[i], path[i+1])
		if err != nil {
			return 0, err
		}
		total += segment
	}
	return total, nil
}

// DecodePolyline decodes a Google encoded polyline string to a Path
func (d *distance) DecodePolyline(encoded string) (Path, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	path := make(Path, len(coords))
	for i, coord := range coords {
		path[i] = Point{Latitude: coord[0], Longitude: coord[1]}
		if err := validate(path[i]); err != nil {
			return nil, fmt.Errorf("decoded polyline contains invalid coordinates: %w", err)
		}
	}
	return path, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	p := Point{Latitude: latitude, Longitude: longitude}
	if err := validate(p); err != nil {
		return Point{}, err
	}
	return p, nil
}

// validate checks the coordinate domain and rejects non-finite values
func validate(p Point) error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return fmt.Errorf("%w: got (%v, %v)", ErrInvalidCoordinate, p.Latitude, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: got (%v, %v)", ErrInvalidCoordinate, p.Latitude, p.Longitude)
	}
	return nil
}
