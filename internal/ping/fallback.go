package ping

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
)

// FallbackPinger probes with primary and retries with secondary when the
// primary hits a permission error. Raw ICMP sockets usually need elevated
// privileges; the ping binary carries its own.
type FallbackPinger struct {
	primary   Pinger
	secondary Pinger
}

// NewFallbackPinger wraps primary with a secondary fallback.
func NewFallbackPinger(primary, secondary Pinger) *FallbackPinger {
	return &FallbackPinger{primary: primary, secondary: secondary}
}

func (p *FallbackPinger) Ping(ctx context.Context, addr string) Result {
	result := p.primary.Ping(ctx, addr)
	if result.Err == nil || !isPermissionError(result.Err) {
		return result
	}
	return p.secondary.Ping(ctx, addr)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}
