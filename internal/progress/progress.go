// Package progress renders a live scan counter when stdout is a
// terminal (spec §7's "live progress bar"), falling back to periodic
// log lines otherwise. The core only calls Increment; it never blocks
// on how the presenter chooses to render (SPEC_FULL.md §A.2).
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Presenter tracks a running count against a known total and renders
// it either as a carriage-return-updated line (TTY) or as periodic
// log lines (non-TTY, e.g. piped to a file or systemd journal).
type Presenter struct {
	w         io.Writer
	isTTY     bool
	total     int64
	count     atomic.Int64
	interval  time.Duration
	lastFlush atomic.Int64 // unix nanos of the last non-TTY flush
}

// New builds a Presenter for total tasks, writing to w. isTTY should
// come from IsTerminal(fd) for the file descriptor behind w.
func New(w io.Writer, total int64, isTTY bool) *Presenter {
	return &Presenter{w: w, isTTY: isTTY, total: total, interval: 2 * time.Second}
}

// Increment advances the counter by one and renders if appropriate.
func (p *Presenter) Increment() {
	n := p.count.Add(1)
	if p.isTTY {
		fmt.Fprintf(p.w, "\rscanned %d/%d", n, p.total)
		if n == p.total {
			fmt.Fprintln(p.w)
		}
		return
	}
	p.maybeFlushLine(n)
}

func (p *Presenter) maybeFlushLine(n int64) {
	now := time.Now().UnixNano()
	last := p.lastFlush.Load()
	if n != p.total && time.Duration(now-last) < p.interval {
		return
	}
	if !p.lastFlush.CompareAndSwap(last, now) {
		return
	}
	fmt.Fprintf(p.w, "scanned %d/%d\n", n, p.total)
}

// Count returns the current progress value.
func (p *Presenter) Count() int64 { return p.count.Load() }
