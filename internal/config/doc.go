// Package config provides centralized configuration management for the Prerana
// analytics service. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PRERANA_* for namespacing:
//
//	PRERANA_SERVER_PORT=8080
//	PRERANA_DATA_BASE_DIR=/var/lib/prerana
//	PRERANA_ANALYSIS_ZSCORE_THRESHOLD=3.0
//	PRERANA_ANALYSIS_CACHE_TTL=1h
//	PRERANA_LOGGING_LEVEL=info
//
// # Analysis Parameters
//
// The Analysis section carries the statistical knobs shared by the three
// pipelines: the z-score threshold for anomaly detection, the lookback
// window for baseline statistics, the migration velocity spike threshold,
// the memoization TTL and the loader worker pool width.
//
// # Validation
//
// All configuration is validated at load time to ensure required fields are
// present and values are within acceptable ranges.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
