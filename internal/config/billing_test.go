package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBillingConfigIsValid(t *testing.T) {
	cfg := DefaultBillingConfig()
	require.NoError(t, ValidateBillingConfig(cfg))
	assert.Equal(t, 14, cfg.DueOffsetDays)
	assert.Equal(t, "MIR", cfg.ClientCodePrefix)
	assert.Equal(t, time.Minute, cfg.TariffCacheTTL())
}

func TestValidateBillingConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*BillingConfig){
		"negative offset": func(c *BillingConfig) { c.DueOffsetDays = -1 },
		"zero workers":    func(c *BillingConfig) { c.GenerationConcurrency = 0 },
		"zero attempts":   func(c *BillingConfig) { c.ReconcileMaxAttempts = 0 },
		"empty prefix":    func(c *BillingConfig) { c.ClientCodePrefix = " " },
		"bad schedule":    func(c *BillingConfig) { c.GenerateSchedule = "every day" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultBillingConfig()
			mutate(&cfg)
			assert.Error(t, ValidateBillingConfig(cfg))
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := DefaultBillingConfig()
	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestStaticHolderReturnsConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	cfg.DueOffsetDays = 10
	holder := NewStaticBillingConfigHolder(cfg)
	assert.Equal(t, 10, holder.Get().DueOffsetDays)
}
