package config

import (
	"time"

	"github.com/safewalk/server/internal/lib/routing"
)

// Config represents the complete server configuration
type Config struct {
	Routing   RoutingConfig   `yaml:"routing"`
	Risk      RiskConfig      `yaml:"risk"`
	Deviation DeviationConfig `yaml:"deviation"`
}

// RoutingConfig holds directions provider and cache settings
type RoutingConfig struct {
	Google         GoogleConfig  `yaml:"google"`
	OSRM           OSRMConfig    `yaml:"osrm"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	SearchCacheTTL time.Duration `yaml:"search_cache_ttl"`
}

// GoogleConfig holds Google Directions/Geocoding API settings
type GoogleConfig struct {
	APIKey string `yaml:"api_key"`
}

// OSRMConfig holds OSRM fallback router settings. An empty base URL uses the
// public demo server.
type OSRMConfig struct {
	BaseURL string `yaml:"base_url"`
}

// RiskConfig holds risk grid snapshot settings
type RiskConfig struct {
	// SnapshotPath points at a JSON tile snapshot. Empty means no snapshot;
	// placeholder coverage is synthesized on demand.
	SnapshotPath string `yaml:"snapshot_path"`
}

// DeviationConfig holds off-route detection settings
type DeviationConfig struct {
	ThresholdMeters float64       `yaml:"threshold_meters"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Routing: RoutingConfig{
			OSRM: OSRMConfig{
				BaseURL: "", // public demo server
			},
			CacheTTL:       5 * time.Minute,
			SearchCacheTTL: time.Hour,
		},
		Risk: RiskConfig{
			SnapshotPath: "",
		},
		Deviation: DeviationConfig{
			ThresholdMeters: routing.DefaultDeviationThresholdMeters,
			PollInterval:    5 * time.Second,
		},
	}
}
