package config

import (
	"fmt"
	"time"
)

// Default classification thresholds in milliseconds.
const (
	DefaultWarnThresholdMs = 10
	DefaultFailThresholdMs = 100
)

const (
	defaultRunDuration = 30 * time.Second

	intervalDefault = 1 * time.Second
	intervalMinutes = 5 * time.Second
	intervalHours   = 60 * time.Second
)

// RunConfig is the immutable per-run configuration threaded through the poll
// loop. Built once at startup by Resolve; never mutated afterwards.
type RunConfig struct {
	Targets         []string
	Duration        time.Duration
	Interval        time.Duration
	WarnThresholdMs int
	FailThresholdMs int
	WriteLog        bool
	LogDir          string
}

// Selectors carries the raw invocation values before resolution. Minutes and
// Hours are nil when the corresponding flag was not supplied.
type Selectors struct {
	Minutes         *int
	Hours           *int
	WarnThresholdMs int
	FailThresholdMs int
	SuppressLog     bool
	LogDir          string
}

// Resolve maps an invocation onto a RunConfig. The duration selector fixes
// both the poll interval and whether the result file is written: a short
// default run (no selector) polls every second and never logs; minute runs
// poll every 5s and hour runs every 60s, logging unless suppressed.
func Resolve(targets []string, sel Selectors) (RunConfig, error) {
	if len(targets) == 0 {
		return RunConfig{}, fmt.Errorf("at least one target is required")
	}
	if sel.Minutes != nil && sel.Hours != nil {
		return RunConfig{}, fmt.Errorf("minutes and hours are mutually exclusive")
	}
	if sel.WarnThresholdMs < 0 {
		return RunConfig{}, fmt.Errorf("warn threshold must not be negative: %d", sel.WarnThresholdMs)
	}
	if sel.FailThresholdMs < 0 {
		return RunConfig{}, fmt.Errorf("fail threshold must not be negative: %d", sel.FailThresholdMs)
	}

	cfg := RunConfig{
		Targets:         append([]string(nil), targets...),
		WarnThresholdMs: sel.WarnThresholdMs,
		FailThresholdMs: sel.FailThresholdMs,
		LogDir:          sel.LogDir,
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "."
	}

	switch {
	case sel.Minutes != nil:
		if *sel.Minutes <= 0 {
			return RunConfig{}, fmt.Errorf("minutes must be positive: %d", *sel.Minutes)
		}
		cfg.Duration = time.Duration(*sel.Minutes) * time.Minute
		cfg.Interval = intervalMinutes
		cfg.WriteLog = !sel.SuppressLog
	case sel.Hours != nil:
		if *sel.Hours <= 0 {
			return RunConfig{}, fmt.Errorf("hours must be positive: %d", *sel.Hours)
		}
		cfg.Duration = time.Duration(*sel.Hours) * time.Hour
		cfg.Interval = intervalHours
		cfg.WriteLog = !sel.SuppressLog
	default:
		// No selector: a 30-second smoke run. Logging stays off regardless
		// of the suppress flag.
		cfg.Duration = defaultRunDuration
		cfg.Interval = intervalDefault
		cfg.WriteLog = false
	}

	return cfg, nil
}
