package ping

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// ExternalPinger shells out to the system ping command with a single-packet
// count. Its output is where the localized raw reply text comes from; the
// probe wait is whatever the system ping defaults to.
type ExternalPinger struct{}

// NewExternalPinger returns a ping implementation backed by the ping binary.
func NewExternalPinger() *ExternalPinger {
	return &ExternalPinger{}
}

// Ping sends one echo request and captures the first reply-style line of the
// command output.
func (p *ExternalPinger) Ping(ctx context.Context, addr string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Raw: err.Error(), Err: err}
	}

	cmd := exec.CommandContext(ctx, "ping", pingArgs(addr)...)
	out, runErr := cmd.CombinedOutput()

	raw, recognized := replyLine(string(out))
	if !recognized {
		raw = firstNonEmptyLine(string(out))
	}

	result := Result{Raw: raw}
	if rtt, ok := extractLatency(raw); ok {
		result.RTT = rtt
		result.HasRTT = true
	}

	// A non-zero exit with a recognized timeout/unreachable line is a probe
	// observation, not a programmatic error.
	if runErr != nil && !result.HasRTT {
		result.Err = fmt.Errorf("ping %s: %w", addr, runErr)
		if result.Raw == "" {
			result.Raw = result.Err.Error()
		}
	}
	return result
}

func pingArgs(addr string) []string {
	if runtime.GOOS == "windows" {
		return []string{"-n", "1", addr}
	}
	return []string{"-c", "1", addr}
}
