package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"xscraper/pkg/harvest"
	"xscraper/pkg/models"
)

// ProgressDisplay prints a single status line for one harvest session. It
// implements harvest.Observer.
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	label      string
	target     int
	collected  int
	passes     int
	noProgress int
	refreshes  int
	lastAuthor string
	startTime  time.Time
	isDebug    bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(out io.Writer, debug bool) *ProgressDisplay {
	if out == nil {
		out = io.Discard
	}
	return &ProgressDisplay{out: out, isDebug: debug, startTime: time.Now()}
}

func (p *ProgressDisplay) OnStart(sessionID, label string, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.label = label
	p.target = target
	p.startTime = time.Now()
	if p.isDebug {
		fmt.Fprintf(p.out, "%s %s (session %s, target %d)\n", Magenta("→"), label, sessionID, target)
	}
}

func (p *ProgressDisplay) OnRecord(rec models.Record, collected, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.collected = collected
	p.lastAuthor = rec.Handle
	if p.isDebug {
		p.printDebugRecord(rec)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) OnPass(r harvest.PassReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.passes = r.Pass
	p.noProgress = r.Counters.NoProgress
	if p.isDebug {
		fmt.Fprintf(p.out, "%s pass %d: +%d (%d/%d, stalled %d)\n",
			Dim("•"), r.Pass, r.Added, r.Counters.Collected, r.Counters.Target, r.Counters.NoProgress)
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) OnRefresh(attempt, budget int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.refreshes = attempt
	fmt.Fprintf(p.out, "\n%s No new posts. Reloading (%d/%d)...\n", Yellow("⚠"), attempt, budget)
}

func (p *ProgressDisplay) OnTerminate(res *harvest.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n\n%s Harvested %d posts for %s\n", reasonMark(res.Reason), len(res.Records), p.label)
	fmt.Fprintf(p.out, "  %s %s after %d passes in %s (%.1f posts/min)\n",
		Dim("•"),
		res.Reason,
		res.Passes,
		formatDuration(res.Duration()),
		perMinute(len(res.Records), res.Duration()),
	)

	skipped := res.Stats.Duplicates + res.Stats.Placeholders + res.Stats.Failed
	if skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d duplicates, %d placeholders, %d unreadable\n",
			Dim("•"), res.Stats.Duplicates, res.Stats.Placeholders, res.Stats.Failed)
	}
	if res.Err != nil {
		fmt.Fprintf(p.out, "  %s %v\n", Red("✗"), res.Err)
	}
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	progress := 0.0
	if p.target > 0 {
		progress = float64(p.collected) / float64(p.target)
	}
	barWidth := 20
	filled := int(progress * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d • pass %d • %.1f/min",
		Cyan(p.label),
		bar,
		p.collected,
		p.target,
		p.passes,
		perMinute(p.collected, time.Since(p.startTime)),
	)
	if p.lastAuthor != "" {
		line += fmt.Sprintf(" • %s", p.lastAuthor)
	}
	if p.noProgress > 0 {
		line += fmt.Sprintf(" • %s", Yellow(fmt.Sprintf("stalled %d", p.noProgress)))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// printDebugRecord prints one line per harvested post
func (p *ProgressDisplay) printDebugRecord(rec models.Record) {
	fmt.Fprintf(p.out, "%s %s %s", Green("✓"), rec.Handle, Dim(rec.Timestamp))

	if text := rec.Text; text != "" {
		if r := []rune(text); len(r) > 50 {
			text = string(r[:47]) + "..."
		}
		fmt.Fprintf(p.out, " • %s", Dim(text))
	}
	if rec.Favorites > 0 {
		fmt.Fprintf(p.out, " • %s", Dim(fmt.Sprintf("♥ %d", rec.Favorites)))
	}
	fmt.Fprintln(p.out)
}

func reasonMark(r harvest.TerminalReason) string {
	switch r {
	case harvest.ReasonSuccess:
		return Green("✓")
	case harvest.ReasonDriverError, harvest.ReasonFatalConfig:
		return Red("✗")
	default:
		return Yellow("•")
	}
}

func perMinute(n int, d time.Duration) float64 {
	if d.Minutes() == 0 {
		return 0
	}
	return float64(n) / d.Minutes()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ harvest.Observer = (*ProgressDisplay)(nil)
