package ping

import (
	"context"
	"time"
)

// Result captures a single echo exchange with a target.
type Result struct {
	// Raw is the diagnostic line the probe primitive produced, reported and
	// logged verbatim. Never empty: on error it carries the error text.
	Raw string
	// RTT is the parsed round-trip time, valid only when HasRTT is set.
	RTT    time.Duration
	HasRTT bool
	Err    error
}

// LatencyMs reports the round-trip time as whole milliseconds and whether a
// latency was parsed at all.
func (r Result) LatencyMs() (int, bool) {
	if !r.HasRTT {
		return 0, false
	}
	return int(r.RTT.Milliseconds()), true
}

// Pinger performs one echo exchange per call. Probe timeout semantics belong
// to the individual implementation.
type Pinger interface {
	Ping(ctx context.Context, addr string) Result
}
