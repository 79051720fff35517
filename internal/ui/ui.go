// Package ui renders a live dashboard of the current run.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/rbuchser/fCheck-ServerResponseTime/internal/config"
	"github.com/rbuchser/fCheck-ServerResponseTime/internal/state"
)

const uiRefreshInterval = 500 * time.Millisecond

// UI shows one row per target, colored by the latest classification, with a
// trailing history bar. Quitting the UI ends the run.
type UI struct {
	cfg   config.RunConfig
	state state.Store
}

// New returns a UI instance.
func New(cfg config.RunConfig, store state.Store) *UI {
	return &UI{cfg: cfg, state: store}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	u.render(screen, u.state.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return context.Canceled
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen, u.state.Snapshot())
		}
	}
}

func (u *UI) render(screen tcell.Screen, snapshot []state.TargetStatus) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < 3 {
		screen.Show()
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	header := fmt.Sprintf(" fcheck  %s  (q to quit)", now)
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))

	thresholds := fmt.Sprintf(" warn>=%dms fail>=%dms  interval %s",
		u.cfg.WarnThresholdMs, u.cfg.FailThresholdMs, u.cfg.Interval)
	drawText(screen, 0, 1, width, thresholds, tcell.StyleDefault.Foreground(tcell.ColorGray))

	y := 2
	for _, target := range snapshot {
		if y >= height {
			break
		}
		u.drawTargetRow(screen, y, width, target)
		y++
	}

	screen.Show()
}

func (u *UI) drawTargetRow(screen tcell.Screen, y, width int, target state.TargetStatus) {
	style := severityStyle(target)

	name := padOrTrim(target.Target, 15)
	status := padOrTrim(rowStatus(target), 6)
	latency := padOrTrim(rowLatency(target), 8)
	failures := padOrTrim(fmt.Sprintf("fail %d/%d", target.Failures, target.Probes), 14)

	x := 0
	x = drawText(screen, x, y, width, name+" ", tcell.StyleDefault)
	x = drawText(screen, x, y, width, status+" ", style)
	x = drawText(screen, x, y, width, latency+" ", tcell.StyleDefault)
	x = drawText(screen, x, y, width, failures+" ", tcell.StyleDefault)

	if barWidth := width - x; barWidth > 0 {
		drawText(screen, x, y, width, historyBar(target.History, barWidth), style)
	}
}

func rowStatus(target state.TargetStatus) string {
	if target.Probes == 0 {
		return "..."
	}
	return target.LastSeverity.String()
}

func rowLatency(target state.TargetStatus) string {
	if target.Probes == 0 || !target.LastHasRTT {
		return "-"
	}
	return fmt.Sprintf("%dms", target.LastLatencyMs)
}

// historyBar renders the most recent probes, newest on the right: '_' normal,
// '~' warn, 'x' fail.
func historyBar(history []state.HistoryPoint, width int) string {
	if width <= 0 {
		return ""
	}
	start := len(history) - width
	if start < 0 {
		start = 0
	}
	runes := make([]rune, 0, width)
	for _, point := range history[start:] {
		switch point.Severity {
		case state.SeverityFail:
			runes = append(runes, 'x')
		case state.SeverityWarn:
			runes = append(runes, '~')
		default:
			runes = append(runes, '_')
		}
	}
	return string(runes)
}

func severityStyle(target state.TargetStatus) tcell.Style {
	if target.Probes == 0 {
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
	switch target.LastSeverity {
	case state.SeverityFail:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case state.SeverityWarn:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) int {
	for _, r := range text {
		if x >= maxWidth {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func padOrTrim(value string, width int) string {
	runes := []rune(value)
	if len(runes) > width {
		return string(runes[:width])
	}
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	return string(runes)
}
