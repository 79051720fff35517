package monitor

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/config"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/csvlog"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/ping"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/report"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

type recordingPinger struct {
	calls  []string
	result ping.Result
}

func (p *recordingPinger) Ping(ctx context.Context, addr string) ping.Result {
	p.calls = append(p.calls, addr)
	return p.result
}

var okReply = ping.Result{
	Raw:    "Reply from 10.0.0.1: bytes=32 time=3ms TTL=64",
	RTT:    3 * time.Millisecond,
	HasRTT: true,
}

// newTestMonitor wires a monitor with a fake clock: probing takes no time and
// each pause advances the clock by the poll interval.
func newTestMonitor(cfg config.RunConfig, pinger ping.Pinger, console *report.Console, results *csvlog.ResultFile, store state.Store) (*Monitor, *int) {
	m := New(cfg, "SRC-PC", pinger, console, results, store, zerolog.Nop())

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	pauses := 0
	m.now = func() time.Time { return now }
	m.pause = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pauses++
		now = now.Add(d)
		return nil
	}
	return m, &pauses
}

func TestRunProbesTargetsInOrderEachPass(t *testing.T) {
	cfg := config.RunConfig{
		Targets:         []string{"host-a", "host-b"},
		Duration:        3 * time.Second,
		Interval:        time.Second,
		WarnThresholdMs: 10,
		FailThresholdMs: 100,
	}
	pinger := &recordingPinger{result: okReply}
	var buf bytes.Buffer
	store := state.NewStore(cfg.Targets)
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), nil, store)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Passes at t=0,1,2,3; the clock moves past the deadline during the
	// fourth pause.
	if len(pinger.calls) != 8 {
		t.Fatalf("expected 8 probes, got %d: %v", len(pinger.calls), pinger.calls)
	}
	for i := 0; i < len(pinger.calls); i += 2 {
		if pinger.calls[i] != "host-a" || pinger.calls[i+1] != "host-b" {
			t.Fatalf("targets probed out of order: %v", pinger.calls)
		}
	}

	if lines := strings.Count(buf.String(), "\n"); lines != 8 {
		t.Fatalf("expected one console line per probe, got %d", lines)
	}

	status, _ := store.Get("host-a")
	if status.Probes != 4 {
		t.Fatalf("expected 4 store updates for host-a, got %d", status.Probes)
	}
}

func TestRunAlwaysCompletesOnePass(t *testing.T) {
	cfg := config.RunConfig{Targets: []string{"host-a"}, Duration: 0, Interval: time.Second}
	pinger := &recordingPinger{result: okReply}
	var buf bytes.Buffer
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), nil, state.NewStore(cfg.Targets))

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pinger.calls) != 1 {
		t.Fatalf("expected exactly one pass, got %d probes", len(pinger.calls))
	}
}

func TestRunContinuesAfterProbeFailures(t *testing.T) {
	cfg := config.RunConfig{
		Targets:         []string{"host-a"},
		Duration:        2 * time.Second,
		Interval:        time.Second,
		WarnThresholdMs: 10,
		FailThresholdMs: 100,
	}
	pinger := &recordingPinger{result: ping.Result{Raw: "Request timed out.", Err: errors.New("ping timeout")}}
	var buf bytes.Buffer
	store := state.NewStore(cfg.Targets)
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), nil, store)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("probe failures must not end the run: %v", err)
	}
	if len(pinger.calls) != 3 {
		t.Fatalf("expected 3 probes, got %d", len(pinger.calls))
	}

	status, _ := store.Get("host-a")
	if status.Failures != 3 {
		t.Fatalf("expected every probe recorded as a failure, got %d", status.Failures)
	}
	if !strings.Contains(buf.String(), `"Request timed out."`) {
		t.Fatalf("raw diagnostic text must reach the console: %q", buf.String())
	}
}

func TestRunWritesResultFileAndEmitsPath(t *testing.T) {
	dir := t.TempDir()
	cfg := config.RunConfig{
		Targets:         []string{"host-a"},
		Duration:        time.Second,
		Interval:        time.Second,
		WarnThresholdMs: 10,
		FailThresholdMs: 100,
		WriteLog:        true,
		LogDir:          dir,
	}
	runDate := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	results := csvlog.New(dir, runDate, cfg.Targets)
	pinger := &recordingPinger{result: okReply}
	var buf bytes.Buffer
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), results, state.NewStore(cfg.Targets))

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := results.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := filepath.Join(dir, "2024-01-15 - host-a PingResult.csv")
	if results.Path() != wantPath {
		t.Fatalf("expected result path %q, got %q", wantPath, results.Path())
	}
	if !strings.Contains(buf.String(), wantPath) {
		t.Fatalf("expected final path in console output: %q", buf.String())
	}
}

func TestRunAbortsOnResultFileError(t *testing.T) {
	cfg := config.RunConfig{
		Targets:  []string{"host-a"},
		Duration: time.Second,
		Interval: time.Second,
		WriteLog: true,
	}
	// Point the result file at a directory that does not exist.
	results := csvlog.New(filepath.Join(t.TempDir(), "nope"), time.Now(), cfg.Targets)
	pinger := &recordingPinger{result: okReply}
	var buf bytes.Buffer
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), results, state.NewStore(cfg.Targets))

	if err := m.Run(context.Background()); err == nil {
		t.Fatalf("expected a result-file error to end the run")
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	cfg := config.RunConfig{Targets: []string{"host-a"}, Duration: time.Hour, Interval: time.Second}
	pinger := &recordingPinger{result: okReply}
	var buf bytes.Buffer
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), nil, state.NewStore(cfg.Targets))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(pinger.calls) != 1 {
		t.Fatalf("the in-flight pass still completes before the cancellation is seen, got %d probes", len(pinger.calls))
	}
}

func TestRunClassifiesAgainstConfiguredThresholds(t *testing.T) {
	cfg := config.RunConfig{
		Targets:         []string{"host-a"},
		Duration:        0,
		Interval:        time.Second,
		WarnThresholdMs: 5,
		FailThresholdMs: 20,
	}
	pinger := &recordingPinger{result: ping.Result{
		Raw:    "Reply from 10.0.0.1: bytes=32 time=12ms TTL=64",
		RTT:    12 * time.Millisecond,
		HasRTT: true,
	}}
	var buf bytes.Buffer
	store := state.NewStore(cfg.Targets)
	m, _ := newTestMonitor(cfg, pinger, report.NewConsole(&buf, false), nil, store)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, _ := store.Get("host-a")
	if status.LastSeverity != state.SeverityWarn {
		t.Fatalf("expected 12ms with warn=5 fail=20 to classify as warn, got %v", status.LastSeverity)
	}
}
