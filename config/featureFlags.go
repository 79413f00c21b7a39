package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// RateLimitEnabled turns on the Redis fixed-window rate limiter.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true
func RateLimitEnabled() bool {
	return boolFromEnv("RATE_LIMIT_ENABLED")
}

// SkipMigrations disables AutoMigrate on startup (run migrations as a
// separate job instead; AutoMigrate DDL can block tables).
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}

// UploadsEnabled gates the signed-upload endpoints. They need a bucket,
// so default to disabled unless GCS_BUCKET is configured.
//
// Set via env:
// - UPLOADS_ENABLED=true (force on)
// - GCS_BUCKET=<bucket>  (implies on)
func UploadsEnabled() bool {
	if boolFromEnv("UPLOADS_ENABLED") {
		return true
	}
	return strings.TrimSpace(os.Getenv("GCS_BUCKET")) != ""
}

// ReportCacheEnabled turns on short-lived redis caching for the
// dashboard report.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE")
}
