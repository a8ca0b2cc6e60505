package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/wayfare/geoengine/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	dist := geo.NewDistance()

	switch command {
	case "point-distance":
		handlePointDistance(dist)
	case "segment-distance":
		handleSegmentDistance(dist)
	case "path-distance":
		handlePathDistance(dist)
	case "decode-polyline":
		handleDecodePolyline(dist)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance(dist geo.Distance) {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo point-distance --lat1 1.2868 --lng1 103.8545 --lat2 1.2816 --lng2 103.8636")
		fmt.Println("  (Distance between the Merlion and Gardens by the Bay)")
		os.Exit(1)
	}

	p1 := geo.Point{Latitude: *lat1, Longitude: *lng1}
	p2 := geo.Point{Latitude: *lat2, Longitude: *lng2}

	distance, err := dist.PointToPoint(p1, p2)
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%.2f km)\n", distance, distance/1000)
}

func handleSegmentDistance(dist geo.Distance) {
	fs := flag.NewFlagSet("segment-distance", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude of point")
	lng := fs.Float64("lng", 0, "Longitude of point")
	segment := fs.String("segment", "", "Segment as lat1,lng1;lat2,lng2")

	fs.Parse(os.Args[2:])

	if *segment == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo segment-distance --lat 1.3000 --lng 103.8002 --segment \"1.2990,103.8000;1.3010,103.8000\"")
		os.Exit(1)
	}

	ends, err := parsePoints(*segment)
	if err != nil || len(ends) != 2 {
		log.Fatalf("Invalid segment %q: expected lat1,lng1;lat2,lng2", *segment)
	}

	p := geo.Point{Latitude: *lat, Longitude: *lng}
	distance, err := dist.PointToSegment(p, ends[0], ends[1])
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}

	fmt.Printf("Point to segment:\n")
	fmt.Printf("  Point:    (%.6f, %.6f)\n", p.Latitude, p.Longitude)
	fmt.Printf("  Segment:  (%.6f, %.6f) -> (%.6f, %.6f)\n",
		ends[0].Latitude, ends[0].Longitude, ends[1].Latitude, ends[1].Longitude)
	fmt.Printf("  Distance: %.2f meters\n", distance)
}

func handlePathDistance(dist geo.Distance) {
	fs := flag.NewFlagSet("path-distance", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude of point")
	lng := fs.Float64("lng", 0, "Longitude of point")
	pathStr := fs.String("path", "", "Path as lat1,lng1;lat2,lng2;...")
	threshold := fs.Float64("threshold", 200, "Proximity threshold in meters")

	fs.Parse(os.Args[2:])

	if *pathStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo path-distance --lat 1.3043 --lng 103.8315 --path \"1.3040,103.8300;1.3046,103.8330;1.3052,103.8365\"")
		os.Exit(1)
	}

	path, err := parsePoints(*pathStr)
	if err != nil {
		log.Fatalf("Invalid path: %v", err)
	}

	p := geo.Point{Latitude: *lat, Longitude: *lng}
	distance, err := dist.PointToPath(p, path)
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}
	near, err := dist.IsNearPath(p, path, *threshold)
	if err != nil {
		log.Fatalf("Error checking proximity: %v", err)
	}

	fmt.Printf("Point to path:\n")
	fmt.Printf("  Point:     (%.6f, %.6f)\n", p.Latitude, p.Longitude)
	fmt.Printf("  Path:      %d points\n", len(path))
	fmt.Printf("  Distance:  %.2f meters\n", distance)
	fmt.Printf("  Within %.0fm: %v\n", *threshold, near)
}

func handleDecodePolyline(dist geo.Distance) {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	encoded := fs.String("polyline", "", "Encoded polyline string")

	fs.Parse(os.Args[2:])

	if *encoded == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		os.Exit(1)
	}

	path, err := dist.DecodePolyline(*encoded)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}
	length, err := dist.PathLength(path)
	if err != nil {
		log.Fatalf("Error computing length: %v", err)
	}

	fmt.Printf("Decoded polyline: %d points, %.2f km total\n", len(path), length/1000)
	for i, p := range path {
		fmt.Printf("  %3d: (%.6f, %.6f)\n", i, p.Latitude, p.Longitude)
	}
}

func parsePoints(s string) (geo.Path, error) {
	var path geo.Path
	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected lat,lng but got %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, err
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, err
		}
		point, err := geo.NewPoint(lat, lng)
		if err != nil {
			return nil, err
		}
		path = append(path, point)
	}
	return path, nil
}

func printUsage() {
	fmt.Println("Geographic distance test tool")
	fmt.Println()
	fmt.Println("Usage: test-geo <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  point-distance    Great-circle distance between two points")
	fmt.Println("  segment-distance  Distance from a point to a segment")
	fmt.Println("  path-distance     Minimum distance from a point to a path")
	fmt.Println("  decode-polyline   Decode an encoded polyline")
	fmt.Println("  help              Show this help")
}
