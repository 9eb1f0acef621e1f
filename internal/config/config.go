package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every tunable the scoring pipeline reads. No business
// constant is hardcoded in the stages themselves; they all flow from here.
type Config struct {
	// DatabaseURL is the Postgres DSN for the metric/score store.
	DatabaseURL string

	// OSRMURL is the base URL of the OSRM routing engine.
	OSRMURL string

	// ProxyFactor converts miles to estimated drive minutes when no routed
	// result is available.
	ProxyFactor float64

	// WeightDensity and WeightDrivetime combine the component scores into
	// the composite dearth score.
	WeightDensity   float64
	WeightDrivetime float64

	// RouteWorkers bounds the concurrency of OSRM route queries.
	RouteWorkers int

	// RouteRateLimit caps route queries per second. Zero means unlimited.
	RouteRateLimit float64

	// WaitTimeDays is the placeholder wait-time value stamped on every
	// metric row until a real data source exists.
	WaitTimeDays float64

	// IncludeZipAreas adds ZCTA-derived regions to the run scope alongside
	// counties.
	IncludeZipAreas bool
}

// Defaults mirror the reference deployment: a local OSRM container and the
// 0.6/0.4 density/drive-time weighting.
const (
	DefaultOSRMURL         = "http://localhost:5000"
	DefaultProxyFactor     = 1.5
	DefaultWeightDensity   = 0.6
	DefaultWeightDrivetime = 0.4
	DefaultRouteWorkers    = 25
	DefaultWaitTimeDays    = 14.0
)

// LoadFromEnv loads pipeline configuration from environment variables.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (required)
//   - OSRM_URL: routing engine base URL (default http://localhost:5000)
//   - DRIVETIME_PROXY_FACTOR: minutes per mile for proxy estimates (default 1.5)
//   - DEARTH_WEIGHT_DENSITY / DEARTH_WEIGHT_DRIVETIME: composite weights (default 0.6 / 0.4)
//   - ROUTE_WORKERS: concurrent route queries (default 25)
//   - ROUTE_RATE_LIMIT: route queries per second, 0 = unlimited (default 0)
//   - DEARTH_INCLUDE_ZIP_AREAS: "true" to score ZCTA regions too (default false)
//   - SCORING_WEIGHTS_FILE: optional YAML file overriding the weights
func LoadFromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		OSRMURL:         envOr("OSRM_URL", DefaultOSRMURL),
		ProxyFactor:     envFloat("DRIVETIME_PROXY_FACTOR", DefaultProxyFactor),
		WeightDensity:   envFloat("DEARTH_WEIGHT_DENSITY", DefaultWeightDensity),
		WeightDrivetime: envFloat("DEARTH_WEIGHT_DRIVETIME", DefaultWeightDrivetime),
		RouteWorkers:    envInt("ROUTE_WORKERS", DefaultRouteWorkers),
		RouteRateLimit:  envFloat("ROUTE_RATE_LIMIT", 0),
		WaitTimeDays:    DefaultWaitTimeDays,
		IncludeZipAreas: strings.EqualFold(os.Getenv("DEARTH_INCLUDE_ZIP_AREAS"), "true"),
	}

	if path := strings.TrimSpace(os.Getenv("SCORING_WEIGHTS_FILE")); path != "" {
		w, err := LoadWeightsFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.WeightDensity = w.Density
		cfg.WeightDrivetime = w.Drivetime
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a pipeline run.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.ProxyFactor <= 0 {
		return ErrInvalidProxyFactor
	}
	if c.WeightDensity < 0 || c.WeightDrivetime < 0 {
		return ErrInvalidWeights
	}
	if c.RouteWorkers < 1 {
		return ErrInvalidRouteWorkers
	}
	return nil
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
