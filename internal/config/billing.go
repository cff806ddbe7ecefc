package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig holds the operator-tunable billing policy read from billing.yml.
type BillingConfig struct {
	DueOffsetDays         int    `mapstructure:"dueOffsetDays"`
	GenerationConcurrency int    `mapstructure:"generationConcurrency"`
	ReconcileMaxAttempts  int    `mapstructure:"reconcileMaxAttempts"`
	ClientCodePrefix      string `mapstructure:"clientCodePrefix"`
	GenerateSchedule      string `mapstructure:"generateSchedule"`
	SweepSchedule         string `mapstructure:"sweepSchedule"`
	Timezone              string `mapstructure:"timezone"`
	TariffCacheTTLSeconds int    `mapstructure:"tariffCacheTTLSeconds"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DueOffsetDays:         14,
		GenerationConcurrency: 8,
		ReconcileMaxAttempts:  3,
		ClientCodePrefix:      "MIR",
		GenerateSchedule:      "0 3 1 * *",
		SweepSchedule:         "30 0 * * *",
		Timezone:              "America/Lima",
		TariffCacheTTLSeconds: 60,
	}
}

// Location resolves Timezone, falling back to UTC.
func (c BillingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func (c BillingConfig) TariffCacheTTL() time.Duration {
	return time.Duration(c.TariffCacheTTLSeconds) * time.Second
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder wraps a fixed config, used by tests and tools.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	log = log.Named("config.billing")
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/recaudo/config")
	v.AddConfigPath("/etc/recaudo")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RECAUDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.dueOffsetDays", defaults.DueOffsetDays)
	v.SetDefault("billing.generationConcurrency", defaults.GenerationConcurrency)
	v.SetDefault("billing.reconcileMaxAttempts", defaults.ReconcileMaxAttempts)
	v.SetDefault("billing.clientCodePrefix", defaults.ClientCodePrefix)
	v.SetDefault("billing.generateSchedule", defaults.GenerateSchedule)
	v.SetDefault("billing.sweepSchedule", defaults.SweepSchedule)
	v.SetDefault("billing.timezone", defaults.Timezone)
	v.SetDefault("billing.tariffCacheTTLSeconds", defaults.TariffCacheTTLSeconds)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		log.Info("billing.yml not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := ValidateBillingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func ValidateBillingConfig(cfg BillingConfig) error {
	if cfg.DueOffsetDays < 0 || cfg.DueOffsetDays > 60 {
		return errors.New("billing.dueOffsetDays must be between 0 and 60")
	}
	if cfg.GenerationConcurrency <= 0 {
		return errors.New("billing.generationConcurrency must be positive")
	}
	if cfg.ReconcileMaxAttempts <= 0 {
		return errors.New("billing.reconcileMaxAttempts must be positive")
	}
	if strings.TrimSpace(cfg.ClientCodePrefix) == "" {
		return errors.New("billing.clientCodePrefix cannot be empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.GenerateSchedule); err != nil {
		return errors.New("billing.generateSchedule is not a valid cron expression")
	}
	if _, err := parser.Parse(cfg.SweepSchedule); err != nil {
		return errors.New("billing.sweepSchedule is not a valid cron expression")
	}
	return nil
}
