package reports

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/sirupsen/logrus"
)

// reportCacheTTL reads REPORT_CACHE_TTL_SECONDS (default 120s).
func reportCacheTTL() time.Duration {
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// reportSlowMs reads REPORT_SLOW_MS (default 500ms).
func reportSlowMs() int64 {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time) {
	elapsed := time.Since(started)
	if elapsed.Milliseconds() < reportSlowMs() {
		return
	}
	config.GetLogger().WithFields(logrus.Fields{
		"report":        name,
		"ms":            elapsed.Milliseconds(),
		"correlationId": utils.GetContextCorrelationId(ctx),
	}).Warn("slow report")
}

func cacheGet[T any](key string, dest *T) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}
