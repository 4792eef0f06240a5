package scheduler

import (
	"time"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
)

// Config controls job schedules and per-run limits.
type Config struct {
	InvitationSweepSchedule string
	JobTimeout              time.Duration
	LockTTL                 time.Duration
}

func DefaultConfig() Config {
	return Config{
		InvitationSweepSchedule: "@every 1h",
		JobTimeout:              time.Minute,
		LockTTL:                 5 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{InvitationSweepSchedule: cfg.InvitationSweepSchedule}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.InvitationSweepSchedule == "" {
		c.InvitationSweepSchedule = defaults.InvitationSweepSchedule
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
