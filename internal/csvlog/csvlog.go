// Package csvlog persists probe records to the append-only result file.
package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

const timeLayout = "2006-01-02 15:04:05"

var header = []string{"Date", "Source Computer", "Target Computer", "Response Message", "Reply Time"}

// ResultFile appends probe records to a semicolon-delimited CSV. The file is
// opened lazily on first append; the header row is written only when the file
// is new, so same-day reruns append to the existing file.
type ResultFile struct {
	path string
	file *os.File
	w    *csv.Writer
}

// Filename derives the result file name from the run date and target list.
// A single-target run carries the target in the name.
func Filename(date time.Time, targets []string) string {
	day := date.Format("2006-01-02")
	if len(targets) == 1 {
		return fmt.Sprintf("%s - %s PingResult.csv", day, targets[0])
	}
	return fmt.Sprintf("%s - PingResult.csv", day)
}

// New prepares a result file under dir. No I/O happens until the first Append.
func New(dir string, date time.Time, targets []string) *ResultFile {
	return &ResultFile{path: filepath.Join(dir, Filename(date, targets))}
}

// Path returns the result file location.
func (f *ResultFile) Path() string {
	return f.path
}

// Append writes one probe row. The fifth field is empty when no latency was
// parsed.
func (f *ResultFile) Append(rec state.ProbeRecord) error {
	if f.file == nil {
		if err := f.open(); err != nil {
			return err
		}
	}

	latency := ""
	if rec.HasLatency {
		latency = strconv.Itoa(rec.LatencyMs)
	}
	row := []string{rec.Timestamp.Format(timeLayout), rec.Source, rec.Target, rec.Raw, latency}
	if err := f.w.Write(row); err != nil {
		return fmt.Errorf("append result row: %w", err)
	}
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		return fmt.Errorf("append result row: %w", err)
	}
	return nil
}

func (f *ResultFile) open() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open result file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat result file: %w", err)
	}

	f.file = file
	f.w = csv.NewWriter(file)
	f.w.Comma = ';'

	if info.Size() == 0 {
		if err := f.w.Write(header); err != nil {
			return fmt.Errorf("write result header: %w", err)
		}
		f.w.Flush()
		if err := f.w.Error(); err != nil {
			return fmt.Errorf("write result header: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the file if it was ever opened.
func (f *ResultFile) Close() error {
	if f.file == nil {
		return nil
	}
	f.w.Flush()
	flushErr := f.w.Error()
	closeErr := f.file.Close()
	f.file = nil
	f.w = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
