package state

import "time"

// Severity classifies a probe against the warn/fail thresholds.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarn
	SeverityFail
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "OK"
	case SeverityWarn:
		return "WARN"
	case SeverityFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Classify maps an optional latency onto a severity. A probe without a
// parsable latency (timeout, unreachable, unrecognized text) is a failure,
// never a silent skip and never a style of its own.
func Classify(latencyMs int, hasLatency bool, warnMs, failMs int) Severity {
	if !hasLatency {
		return SeverityFail
	}
	if latencyMs >= failMs {
		return SeverityFail
	}
	if latencyMs >= warnMs {
		return SeverityWarn
	}
	return SeverityNormal
}

// ProbeRecord is one finished probe observation. Created fresh per probe and
// never mutated afterwards.
type ProbeRecord struct {
	Timestamp  time.Time
	Source     string
	Target     string
	Raw        string
	LatencyMs  int
	HasLatency bool
	Severity   Severity
}

// HistoryPoint records a single probe for the history ring.
type HistoryPoint struct {
	Time       time.Time
	LatencyMs  int
	HasLatency bool
	Severity   Severity
}

// TargetStatus aggregates the probes seen for one target during the run.
type TargetStatus struct {
	Target        string
	LastRaw       string
	LastLatencyMs int
	LastHasRTT    bool
	LastSeverity  Severity
	LastProbeAt   time.Time
	Probes        int
	Failures      int
	History       []HistoryPoint
}

// Store tracks per-target aggregates for the dashboard and metrics surfaces.
type Store interface {
	Update(rec ProbeRecord)
	Snapshot() []TargetStatus
	Get(target string) (TargetStatus, bool)
}
