// Package config loads engine configuration from defaults, an optional YAML
// file, and GEOENGINE_-prefixed environment variables, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GEOENGINE_"

// Config represents the complete engine configuration
type Config struct {
	Search     SearchConfig    `koanf:"search"`
	Proximity  ProximityConfig `koanf:"proximity"`
	Places     ServiceConfig   `koanf:"places"`
	Directions ServiceConfig   `koanf:"directions"`
	Incidents  IncidentsConfig `koanf:"incidents"`
}

// SearchConfig holds place search and aggregation settings
type SearchConfig struct {
	NearbyRadiusMeters float64       `koanf:"nearby_radius_meters"`
	MinQueryLength     int           `koanf:"min_query_length"`
	DebounceInterval   time.Duration `koanf:"debounce_interval"`
}

// ProximityConfig holds route correlation settings
type ProximityConfig struct {
	ThresholdMeters float64 `koanf:"threshold_meters"`
}

// ServiceConfig holds settings for an external HTTP API
type ServiceConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// IncidentsConfig holds KML feed settings
type IncidentsConfig struct {
	Feeds           []FeedConfig  `koanf:"feeds"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// FeedConfig identifies a single KML feed and the category applied to its
// features
type FeedConfig struct {
	URL      string `koanf:"url"`
	Category string `koanf:"category"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			NearbyRadiusMeters: 5000,
			MinQueryLength:     2,
			DebounceInterval:   500 * time.Millisecond,
		},
		Proximity: ProximityConfig{
			ThresholdMeters: 200,
		},
		Incidents: IncidentsConfig{
			RefreshInterval: 5 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envToKey maps GEOENGINE_SEARCH__MIN_QUERY_LENGTH to search.min_query_length.
// Double underscore separates sections so single underscores survive in key
// names.
func envToKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"search.nearby_radius_meters": d.Search.NearbyRadiusMeters,
		"search.min_query_length":     d.Search.MinQueryLength,
		"search.debounce_interval":    d.Search.DebounceInterval,
		"proximity.threshold_meters":  d.Proximity.ThresholdMeters,
		"incidents.refresh_interval":  d.Incidents.RefreshInterval,
	}
}
