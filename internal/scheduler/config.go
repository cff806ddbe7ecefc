package scheduler

import (
	"time"
)

// Config controls per-job timeouts and which jobs run.
type Config struct {
	GenerateTimeout time.Duration
	SweepTimeout    time.Duration
	// LockTTL bounds how long a crashed replica can keep a job locked.
	LockTTL time.Duration
	// EnabledJobs limits the scheduler to the named jobs; empty enables all.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		GenerateTimeout: 30 * time.Minute,
		SweepTimeout:    5 * time.Minute,
		LockTTL:         45 * time.Minute,
	}
}

func ProvideConfig() Config {
	return DefaultConfig()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = defaults.GenerateTimeout
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = defaults.SweepTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
