// Package report renders classified probe lines for the operator console.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

const timeLayout = "2006-01-02 15:04:05"

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// Console writes one line per probe. The line layout is an operator-facing
// contract; severity only changes the color, never the fields.
type Console struct {
	out   io.Writer
	color bool
}

// NewConsole returns a reporter writing to out. Color is the caller's call,
// typically on only when out is a terminal.
func NewConsole(out io.Writer, color bool) *Console {
	return &Console{out: out, color: color}
}

// Probe writes the classified line for one probe record.
func (c *Console) Probe(rec state.ProbeRecord) error {
	latency := ""
	if rec.HasLatency {
		latency = strconv.Itoa(rec.LatencyMs)
	}

	line := fmt.Sprintf("%s | %-15s | Ping Reply Time: %5s | Response Message: %q",
		rec.Timestamp.Format(timeLayout), rec.Target, latency, rec.Raw)

	if c.color {
		switch rec.Severity {
		case state.SeverityFail:
			line = ansiRed + line + ansiReset
		case state.SeverityWarn:
			line = ansiYellow + line + ansiReset
		}
	}

	_, err := fmt.Fprintln(c.out, line)
	return err
}

// ResultFilePath announces where the result file landed after the run.
func (c *Console) ResultFilePath(path string) error {
	_, err := fmt.Fprintf(c.out, "Results written to %s\n", path)
	return err
}
