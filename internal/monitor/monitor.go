// Package monitor runs the bounded poll/classify/report loop.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/config"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/csvlog"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/ping"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/report"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

// Monitor probes each target in order, classifies, reports, and optionally
// logs, until the run deadline passes. Strictly sequential: one probe at a
// time, sleep after each full pass.
type Monitor struct {
	cfg     config.RunConfig
	source  string
	pinger  ping.Pinger
	console *report.Console
	results *csvlog.ResultFile // nil when logging is off
	store   state.Store
	log     zerolog.Logger

	now   func() time.Time
	pause func(ctx context.Context, d time.Duration) error
}

// New wires a monitor. results may be nil to disable the result file.
func New(
	cfg config.RunConfig,
	source string,
	pinger ping.Pinger,
	console *report.Console,
	results *csvlog.ResultFile,
	store state.Store,
	log zerolog.Logger,
) *Monitor {
	return &Monitor{
		cfg:     cfg,
		source:  source,
		pinger:  pinger,
		console: console,
		results: results,
		store:   store,
		log:     log,
		now:     time.Now,
		pause:   sleepContext,
	}
}

// Run executes passes over the targets until the wall clock passes the run
// deadline. The first pass always completes; the interval sleep happens after
// each pass, so the cadence drifts by however long the probes took.
func (m *Monitor) Run(ctx context.Context) error {
	end := m.now().Add(m.cfg.Duration)

	m.log.Info().
		Int("targets", len(m.cfg.Targets)).
		Dur("duration", m.cfg.Duration).
		Dur("interval", m.cfg.Interval).
		Bool("result_file", m.results != nil).
		Msg("run started")

	for !m.now().After(end) {
		for _, target := range m.cfg.Targets {
			if err := m.probe(ctx, target); err != nil {
				return err
			}
		}
		if err := m.pause(ctx, m.cfg.Interval); err != nil {
			return err
		}
	}

	if m.results != nil {
		m.log.Info().Str("path", m.results.Path()).Msg("run finished")
		return m.console.ResultFilePath(m.results.Path())
	}
	m.log.Info().Msg("run finished")
	return nil
}

// probe performs one echo exchange and fans the record out to the result
// file, the console, and the status store. Probe failures are observations;
// only result-file I/O errors end the run.
func (m *Monitor) probe(ctx context.Context, target string) error {
	res := m.pinger.Ping(ctx, target)
	latency, hasLatency := res.LatencyMs()

	rec := state.ProbeRecord{
		Timestamp:  m.now(),
		Source:     m.source,
		Target:     target,
		Raw:        res.Raw,
		LatencyMs:  latency,
		HasLatency: hasLatency,
		Severity:   state.Classify(latency, hasLatency, m.cfg.WarnThresholdMs, m.cfg.FailThresholdMs),
	}

	if res.Err != nil {
		m.log.Debug().Err(res.Err).Str("target", target).Msg("probe failed")
	}

	if m.results != nil {
		if err := m.results.Append(rec); err != nil {
			return fmt.Errorf("result file: %w", err)
		}
	}
	if err := m.console.Probe(rec); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	m.store.Update(rec)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
