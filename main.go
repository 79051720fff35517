package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/cli"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/config"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/csvlog"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/metrics"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/monitor"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/ping"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/report"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/ui"
)

const version = "1.0.0"

func main() {
	var (
		flagMinutes       cli.OptionalInt
		flagHours         cli.OptionalInt
		flagWarn          = flag.Int("warn", config.DefaultWarnThresholdMs, "warning threshold in milliseconds")
		flagFail          = flag.Int("fail", config.DefaultFailThresholdMs, "failure threshold in milliseconds")
		flagNoLog         = flag.Bool("no-log", false, "suppress the CSV result file")
		flagLogDir        = flag.String("log-dir", ".", "directory for the CSV result file")
		flagUI            = flag.Bool("ui", false, "show a live dashboard instead of per-probe lines")
		flagMetricsListen = flag.String("metrics-listen", "", "serve /metrics on this address during the run")
		flagVerbose       = flag.Bool("verbose", false, "enable debug diagnostics")
		flagVersion       = flag.Bool("version", false, "show version")
		flagVersionShort  = flag.Bool("v", false, "show version")
	)

	flag.Var(&flagMinutes, "minutes", "run duration in minutes (polls every 5s)")
	flag.Var(&flagMinutes, "m", "run duration in minutes (polls every 5s)")
	flag.Var(&flagHours, "hours", "run duration in hours (polls every 60s)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <target> [<target>...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *flagVersion || *flagVersionShort {
		fmt.Fprintf(os.Stdout, "fcheck version %s\n", version)
		return
	}

	lg := buildLogger(*flagVerbose)

	cfg, err := config.Resolve(flag.Args(), buildSelectors(flagMinutes, flagHours, *flagWarn, *flagFail, *flagNoLog, *flagLogDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.Hostname()
	if err != nil {
		lg.Warn().Err(err).Msg("could not read local hostname")
		source = "unknown"
	}

	store := state.NewStore(cfg.Targets)

	var results *csvlog.ResultFile
	if cfg.WriteLog {
		results = csvlog.New(cfg.LogDir, time.Now(), cfg.Targets)
		defer results.Close()
	}

	console := report.NewConsole(os.Stdout, colorEnabled(os.Stdout))
	if *flagUI {
		// The dashboard owns the terminal; probe lines would corrupt it.
		// The result file path still reaches the operator via the log.
		console = report.NewConsole(io.Discard, false)
	}

	mon := monitor.New(cfg, source, buildPinger(lg), console, results, store, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *flagMetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, *flagMetricsListen, store); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if err := run(ctx, cancel, mon, store, cfg, *flagUI); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// run executes the monitor, with the dashboard alongside it when requested.
func run(ctx context.Context, cancel context.CancelFunc, mon *monitor.Monitor, store state.Store, cfg config.RunConfig, withUI bool) error {
	if !withUI {
		return mon.Run(ctx)
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- mon.Run(ctx)
		cancel()
	}()

	// Quitting the dashboard cancels the run.
	if err := ui.New(cfg, store).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cancel()
		<-runErr
		return err
	}
	cancel()
	return <-runErr
}

func buildSelectors(minutes, hours cli.OptionalInt, warn, fail int, noLog bool, logDir string) config.Selectors {
	return config.Selectors{
		Minutes:         minutes.Ptr(),
		Hours:           hours.Ptr(),
		WarnThresholdMs: warn,
		FailThresholdMs: fail,
		SuppressLog:     noLog,
		LogDir:          logDir,
	}
}

func buildPinger(lg zerolog.Logger) ping.Pinger {
	icmpPinger, err := ping.NewICMPPinger()
	if err != nil {
		lg.Debug().Err(err).Msg("raw ICMP unavailable, using system ping")
		return ping.NewExternalPinger()
	}
	return ping.NewFallbackPinger(icmpPinger, ping.NewExternalPinger())
}

func buildLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func colorEnabled(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
