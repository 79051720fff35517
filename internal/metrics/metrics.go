// Package metrics exposes run state in Prometheus text format.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

// Server serves metrics read from the status store.
type Server struct {
	store state.Store
}

// NewServer constructs a metrics server.
func NewServer(store state.Store) *Server {
	return &Server{store: store}
}

// Handler returns an http handler that serves metrics.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		bw := bufio.NewWriter(w)
		defer bw.Flush()
		s.writeMetrics(bw)
	})
}

func (s *Server) writeMetrics(w *bufio.Writer) {
	snapshot := s.store.Snapshot()

	fmt.Fprintf(w, "fcheck_targets_total %d\n", len(snapshot))
	for _, target := range snapshot {
		labels := fmt.Sprintf("target=%q", escapeLabel(target.Target))

		ok := 0
		if target.Probes > 0 && target.LastSeverity != state.SeverityFail {
			ok = 1
		}
		fmt.Fprintf(w, "fcheck_target_ok{%s} %d\n", labels, ok)
		fmt.Fprintf(w, "fcheck_probes_total{%s} %d\n", labels, target.Probes)
		fmt.Fprintf(w, "fcheck_probe_failures_total{%s} %d\n", labels, target.Failures)
		if target.LastHasRTT {
			fmt.Fprintf(w, "fcheck_probe_latency_ms{%s} %d\n", labels, target.LastLatencyMs)
		}
	}
}

func escapeLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

// Serve starts an HTTP server for /metrics and blocks until context
// cancellation.
func Serve(ctx context.Context, addr string, store state.Store) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewServer(store).Handler())
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
