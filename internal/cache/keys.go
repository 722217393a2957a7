// Package cache defines the Redis key layout and TTL buckets shared by
// the valuation daemon, plus the cached price snapshot used to seed the
// catalog across restarts.
package cache

import (
	"strings"
	"time"

	"betoken-api/internal/config"
)

// Namespace is the Redis key prefix for the application.
const Namespace = "betoken"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// PriceCatalogKey holds the serialized token price snapshot.
func PriceCatalogKey() string {
	return formatKey("prices", "catalog")
}

// FundStateKey holds the serialized fund-wide state of the last pass.
func FundStateKey() string {
	return formatKey("fund", "state")
}

// ValuationKey holds the last published valuation for one manager.
func ValuationKey(manager string) string {
	return formatKey("valuation", strings.ToLower(manager))
}

// PriceCatalogTTL bounds how stale a cached price snapshot may get
// before a cold start refuses to reuse it.
func PriceCatalogTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// ValuationTTL returns the TTL for published manager valuations.
func ValuationTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// FundStateTTL returns the TTL for the fund-wide snapshot.
func FundStateTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}
