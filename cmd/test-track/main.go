package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wayfare/geoengine/internal/lib/geo"
	"github.com/wayfare/geoengine/internal/lib/track"
)

// Exercises the trace selection state machine end to end: decode a trace
// from an encoded polyline, tap a start and end point, print the sub-route.
func main() {
	var (
		encoded  = flag.String("polyline", "", "Encoded polyline to load as the trace")
		startStr = flag.String("start-tap", "", "Start tap coordinates (lat,lng)")
		endStr   = flag.String("end-tap", "", "End tap coordinates (lat,lng)")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *encoded == "" || *startStr == "" || *endStr == "" {
		fmt.Printf("Trace selection test tool\n\n")
		fmt.Printf("Usage: %s -polyline=ENCODED -start-tap=lat,lng -end-tap=lat,lng\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		if *help {
			return
		}
		os.Exit(1)
	}

	dist := geo.NewDistance()
	path, err := dist.DecodePolyline(*encoded)
	if err != nil {
		log.Fatalf("Invalid polyline: %v", err)
	}

	trace := make([]track.TracePoint, len(path))
	for i, p := range path {
		trace[i] = track.TracePoint{Point: p, Timestamp: int64(i) * 5000}
	}

	startTap, err := parsePoint(*startStr)
	if err != nil {
		log.Fatalf("Invalid start tap: %v", err)
	}
	endTap, err := parsePoint(*endStr)
	if err != nil {
		log.Fatalf("Invalid end tap: %v", err)
	}

	segmenter := track.NewSegmenter()
	segmenter.Load(trace)
	fmt.Printf("Loaded trace: %d points, state=%s\n", len(trace), segmenter.State())

	if err := segmenter.SelectStart(startTap); err != nil {
		log.Fatalf("SelectStart failed: %v", err)
	}
	fmt.Printf("Start selected, state=%s\n", segmenter.State())

	if err := segmenter.SelectEnd(endTap); err != nil {
		log.Fatalf("SelectEnd failed: %v", err)
	}

	start, end, err := segmenter.Bounds()
	if err != nil {
		log.Fatalf("Bounds failed: %v", err)
	}
	subRoute, err := segmenter.SubRoute()
	if err != nil {
		log.Fatalf("SubRoute failed: %v", err)
	}

	fmt.Printf("Selection: indices [%d, %d], %d points\n", start, end, len(subRoute))
	for i, tp := range subRoute {
		fmt.Printf("  %3d: (%.6f, %.6f) t=%dms\n",
			start+i, tp.Point.Latitude, tp.Point.Longitude, tp.Timestamp)
	}
}

func parsePoint(s string) (geo.Point, error) {
	var lat, lng float64
	if _, err := fmt.Sscanf(s, "%f,%f", &lat, &lng); err != nil {
		return geo.Point{}, err
	}
	return geo.NewPoint(lat, lng)
}
