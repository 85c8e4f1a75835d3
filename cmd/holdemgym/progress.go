package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/coder/quartz"
)

// progressBar draws a single-line progress bar for a batch run. Report may be
// called from several goroutines.
type progressBar struct {
	mu    sync.Mutex
	w     io.Writer
	bar   progress.Model
	clock quartz.Clock
	start time.Time
	last  int // last percentage drawn
}

func newProgressBar(w io.Writer, clock quartz.Clock) *progressBar {
	return &progressBar{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		clock: clock,
		start: clock.Now(),
		last:  -1,
	}
}

// Report redraws the bar when the whole percentage changes.
func (p *progressBar) Report(done, total int) {
	if total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := done * 100 / total
	if pct == p.last {
		return
	}
	p.last = pct

	elapsed := p.clock.Since(p.start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(done) / elapsed.Seconds()
	}
	fmt.Fprintf(p.w, "\r%s %d/%d (%.0f/sec)", p.bar.ViewAs(float64(done)/float64(total)), done, total, rate)
	if done >= total {
		fmt.Fprintln(p.w)
	}
}
