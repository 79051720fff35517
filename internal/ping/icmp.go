package ping

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const echoData = "fcheck-server-response-time"

// The raw socket has no built-in wait, unlike the ping binary; a reply not
// seen within this window counts as a timeout. Modeled on the common system
// ping default.
const icmpWait = 4 * time.Second

// ICMPPinger sends ICMP echo requests over raw sockets. It synthesizes a
// conventional reply line so downstream consumers see the same text shape as
// with the external pinger.
type ICMPPinger struct {
	id  int
	seq uint32
}

// NewICMPPinger initializes a pinger with a process-scoped identifier.
func NewICMPPinger() (*ICMPPinger, error) {
	return &ICMPPinger{id: os.Getpid() & 0xffff}, nil
}

// Ping sends one echo request and waits for the matching reply.
func (p *ICMPPinger) Ping(ctx context.Context, addr string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Raw: err.Error(), Err: err}
	}

	ip, err := resolveIP(addr)
	if err != nil {
		err = fmt.Errorf("resolve %s: %w", addr, err)
		return Result{Raw: err.Error(), Err: err}
	}

	network, protocol, requestType, replyType := icmpSettings(ip.IP)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return Result{Raw: err.Error(), Err: err}
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&p.seq, 1)) & 0xffff
	msg := icmp.Message{
		Type: requestType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: []byte(echoData),
		},
	}

	payload, err := msg.Marshal(nil)
	if err != nil {
		return Result{Raw: err.Error(), Err: err}
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx)); err != nil {
		return Result{Raw: err.Error(), Err: err}
	}

	start := time.Now()
	if _, err := conn.WriteTo(payload, ip); err != nil {
		return Result{Raw: err.Error(), Err: err}
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return Result{Raw: err.Error(), Err: err}
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return Result{
					Raw: fmt.Sprintf("Request timed out. (%s)", addr),
					Err: fmt.Errorf("ping timeout: %w", err),
				}
			}
			return Result{Raw: err.Error(), Err: err}
		}
		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok {
			continue
		}
		if body.ID != p.id || body.Seq != seq {
			continue
		}

		rtt := time.Since(start)
		return Result{
			Raw:    synthesizeReply(peer.String(), len(body.Data), rtt),
			RTT:    rtt,
			HasRTT: true,
		}
	}
}

// synthesizeReply renders a reply line in the conventional vocabulary, so the
// same phrase registry and latency token apply to raw-socket probes.
func synthesizeReply(peer string, bytes int, rtt time.Duration) string {
	ms := rtt.Milliseconds()
	if ms < 1 {
		return fmt.Sprintf("Reply from %s: bytes=%d time<1ms", peer, bytes)
	}
	return fmt.Sprintf("Reply from %s: bytes=%d time=%dms", peer, bytes, ms)
}

func resolveIP(addr string) (*net.IPAddr, error) {
	ipAddr, err := net.ResolveIPAddr("ip", addr)
	if err != nil {
		return nil, err
	}
	if ipAddr.IP == nil {
		return nil, fmt.Errorf("invalid IP address: %s", addr)
	}
	return ipAddr, nil
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func effectiveDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(icmpWait)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
