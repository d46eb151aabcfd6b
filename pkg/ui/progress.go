package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"xscraper/pkg/harvest"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// BatchTracker keeps totals across the sessions of a batch run
type BatchTracker struct {
	mu        sync.Mutex
	out       io.Writer
	Total     int
	Finished  int
	Failed    int
	Collected int
	StartTime time.Time
}

// NewBatchTracker creates a tracker for total sessions
func NewBatchTracker(total int, out io.Writer) *BatchTracker {
	if out == nil {
		out = io.Discard
	}
	return &BatchTracker{Total: total, out: out, StartTime: time.Now()}
}

// Done accounts for one finished session and prints the running status
func (bt *BatchTracker) Done(res *harvest.Result) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.Finished++
	if res != nil {
		bt.Collected += len(res.Records)
		if res.Reason == harvest.ReasonDriverError || res.Reason == harvest.ReasonFatalConfig {
			bt.Failed++
		}
	}
	fmt.Fprintf(bt.out, "\r%s %s • %d posts", Green("[HARVESTED]"), bt.bar(), bt.Collected)
	if bt.Failed > 0 {
		fmt.Fprintf(bt.out, " • %s", Red(fmt.Sprintf("%d failed", bt.Failed)))
	}
}

// Skip accounts for a target that was not run
func (bt *BatchTracker) Skip() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.Finished++
}

// Fail accounts for a target that produced no result at all
func (bt *BatchTracker) Fail() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.Finished++
	bt.Failed++
}

func (bt *BatchTracker) bar() string {
	const width = 20
	filled := 0
	if bt.Total > 0 {
		filled = bt.Finished * width / bt.Total
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s] %d/%d",
		strings.Repeat(ProgressBar, filled)+strings.Repeat(ProgressEmpty, width-filled),
		bt.Finished, bt.Total)
}

// Rate returns collected posts per minute
func (bt *BatchTracker) Rate() float64 {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	elapsed := time.Since(bt.StartTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(bt.Collected) / elapsed
}

// Summary prints the final totals
func (bt *BatchTracker) Summary() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	fmt.Fprintf(bt.out, "\n\n%s %d of %d targets harvested, %d posts in %s\n",
		Green("✓"), bt.Finished-bt.Failed, bt.Total, bt.Collected,
		formatDuration(time.Since(bt.StartTime)))
}
