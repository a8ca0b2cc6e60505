package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Search.NearbyRadiusMeters)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.DebounceInterval)
	assert.Equal(t, 200.0, cfg.Proximity.ThresholdMeters)
	assert.Empty(t, cfg.Places.APIKey)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  nearby_radius_meters: 2500
  min_query_length: 3
proximity:
  threshold_meters: 150
places:
  api_key: file-key
incidents:
  feeds:
    - url: https://example.com/closures.kml
      category: closure
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, cfg.Search.NearbyRadiusMeters)
	assert.Equal(t, 3, cfg.Search.MinQueryLength)
	assert.Equal(t, 150.0, cfg.Proximity.ThresholdMeters)
	assert.Equal(t, "file-key", cfg.Places.APIKey)
	require.Len(t, cfg.Incidents.Feeds, 1)
	assert.Equal(t, "closure", cfg.Incidents.Feeds[0].Category)

	// File only overrides the keys it sets
	assert.Equal(t, 500*time.Millisecond, cfg.Search.DebounceInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("places:\n  api_key: file-key\n"), 0o644))

	t.Setenv("GEOENGINE_PLACES__API_KEY", "env-key")
	t.Setenv("GEOENGINE_SEARCH__MIN_QUERY_LENGTH", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Places.APIKey)
	assert.Equal(t, 4, cfg.Search.MinQueryLength)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestEnvToKey(t *testing.T) {
	assert.Equal(t, "search.min_query_length", envToKey("GEOENGINE_SEARCH__MIN_QUERY_LENGTH"))
	assert.Equal(t, "places.api_key", envToKey("GEOENGINE_PLACES__API_KEY"))
}
