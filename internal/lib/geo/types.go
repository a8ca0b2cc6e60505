package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Path is an ordered polyline of coordinates. Order is significant: it
// defines the segments i -> i+1. A path with fewer than 2 points has no
// segments and only supports point-distance queries.
type Path []Point

// Distance interface defines geographic distance utilities
type Distance interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(a, b Point) (float64, error)

	// Calculate distance from a point to the nearest point on a segment
	PointToSegment(p, segStart, segEnd Point) (float64, error)

	// Calculate minimum distance from a point to any segment of a path
	PointToPath(p Point, path Path) (float64, error)

	// Check whether a point is within thresholdMeters of any path segment
	IsNearPath(p Point, path Path, thresholdMeters float64) (bool, error)

	// Total length of a path in meters
	PathLength(path Path) (float64, error)

	// Decode a Google encoded polyline string into a Path
	DecodePolyline(encoded string) (Path, error)
}

// NewDistance is implemented in geo.go
