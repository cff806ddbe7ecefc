package cache

import (
	"testing"
	"time"

	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpires(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](WithNow(fake.Now))

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Get("b")
	assert.False(t, ok)

	fake.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTariffCacheKeysAndPurge(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTariffCache[string](time.Minute, WithNow(fake.Now))
	day := time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC)

	c.Set("10", "Internet", day, "50.00")
	v, ok := c.Get("10", "internet", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "50.00", v)

	_, ok = c.Get("10", "cable", day)
	assert.False(t, ok)

	c.Purge()
	_, ok = c.Get("10", "internet", day)
	assert.False(t, ok)

	var disabled *TariffCache[string]
	disabled.Set("10", "internet", day, "x")
	_, ok = disabled.Get("10", "internet", day)
	assert.False(t, ok)
	assert.Nil(t, NewTariffCache[string](-1))
}
