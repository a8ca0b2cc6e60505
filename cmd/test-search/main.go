package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/wayfare/geoengine/internal/clients/places"
	"github.com/wayfare/geoengine/internal/config"
	"github.com/wayfare/geoengine/internal/lib/geo"
	"github.com/wayfare/geoengine/internal/lib/search"
)

func main() {
	var (
		apiKey     = flag.String("api-key", "", "Places API key (or set PLACES_API_KEY env var)")
		query      = flag.String("query", "", "Search query")
		originStr  = flag.String("origin", "", "Optional origin coordinates (lat,lng) for biasing and ranking")
		configPath = flag.String("config", "", "Optional YAML config file")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *query == "" {
		fmt.Printf("Place search aggregation test tool\n\n")
		fmt.Printf("Usage: %s -api-key=YOUR_KEY -query=\"kopitiam\" [-origin=\"1.3521,103.8198\"]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		if *help {
			return
		}
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	key := *apiKey
	if key == "" {
		key = cfg.Places.APIKey
	}
	if key == "" {
		key = os.Getenv("PLACES_API_KEY")
	}
	if key == "" {
		log.Fatal("API key required. Use -api-key flag, config file, or PLACES_API_KEY env var")
	}

	var origin *geo.Point
	if *originStr != "" {
		var lat, lng float64
		if _, err := fmt.Sscanf(*originStr, "%f,%f", &lat, &lng); err != nil {
			log.Fatalf("Invalid origin coordinates: %v", err)
		}
		p, err := geo.NewPoint(lat, lng)
		if err != nil {
			log.Fatalf("Invalid origin coordinates: %v", err)
		}
		origin = &p
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	aggregator := search.NewAggregator(places.NewClient(key, logger), logger)
	aggregator.SetNearbyRadius(cfg.Search.NearbyRadiusMeters)
	aggregator.SetMinQueryLength(cfg.Search.MinQueryLength)

	outcome, err := aggregator.Search(context.Background(), *query, origin)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Session: %s\n", outcome.Session)
	fmt.Printf("Results: %d (degraded=%v, superseded=%v)\n\n",
		len(outcome.Results), outcome.Degraded(), outcome.Superseded)

	for i, r := range outcome.Results {
		fmt.Printf("%3d. %s\n", i+1, r.Name)
		if r.Address != "" {
			fmt.Printf("     %s\n", r.Address)
		}
		if r.DistanceMeters != nil {
			fmt.Printf("     %.0f meters away\n", *r.DistanceMeters)
		}
	}

	for _, f := range outcome.Failures {
		fmt.Printf("source %s failed: %v\n", f.Source, f.Err)
	}
}
