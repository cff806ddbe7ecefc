package cache

import (
	"strings"
	"time"
)

const defaultTariffTTL = time.Minute

// TariffCache stores resolved tariff prices keyed by zone, service type and date.
// Writes to the tariff table purge it entirely.
type TariffCache[V any] struct {
	entries Cache[string, V]
	ttl     time.Duration
}

// NewTariffCache returns nil when ttl is negative, which disables caching.
func NewTariffCache[V any](ttl time.Duration, opts ...Option) *TariffCache[V] {
	if ttl < 0 {
		return nil
	}
	if ttl == 0 {
		ttl = defaultTariffTTL
	}
	return &TariffCache[V]{
		entries: NewTTLCache[string, V](opts...),
		ttl:     ttl,
	}
}

func (c *TariffCache[V]) Get(zoneID, serviceType string, asOf time.Time) (V, bool) {
	if c == nil {
		var zero V
		return zero, false
	}
	return c.entries.Get(cacheKey(zoneID, serviceType, asOf.UTC().Format(time.DateOnly)))
}

func (c *TariffCache[V]) Set(zoneID, serviceType string, asOf time.Time, value V) {
	if c == nil {
		return
	}
	c.entries.Set(cacheKey(zoneID, serviceType, asOf.UTC().Format(time.DateOnly)), value, c.ttl)
}

func (c *TariffCache[V]) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
