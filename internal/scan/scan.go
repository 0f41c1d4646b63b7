// Package scan implements the top-level mode dispatcher and
// repeat/delay scheduling loop (spec §4.7).
package scan

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sooox/serverseeker/internal/candidate"
	"github.com/sooox/serverseeker/internal/logging"
	"github.com/sooox/serverseeker/internal/progress"
	"github.com/sooox/serverseeker/internal/scanerr"
	"github.com/sooox/serverseeker/internal/worker"
)

// Mode selects which candidate producer a scan uses.
type Mode string

const (
	ModeRescanner Mode = "rescanner"
	ModeDiscovery Mode = "discovery"
)

// Producer streams candidates onto ch until its source is exhausted or
// ctx is canceled, closing ch before returning.
type Producer interface {
	Run(ctx context.Context, ch chan<- candidate.Candidate) error
}

// Scheduler drives the while-true repeat/delay loop from spec §4.7.
type Scheduler struct {
	Mode      Mode
	Rescan    Producer
	Discover  Producer
	Pool      worker.Pool
	Repeat    bool
	ScanDelay time.Duration
	Log       *logging.Logger

	// TotalHint sizes the progress presenter. It is called in either
	// mode; discovery mode has no a-priori total of its own, so there
	// the presenter shows whatever total TotalHint returns.
	TotalHint func(ctx context.Context) int64
}

// producerFor resolves which producer this scheduler's Mode selects.
func (s Scheduler) producerFor() (Producer, error) {
	switch s.Mode {
	case ModeRescanner:
		return s.Rescan, nil
	case ModeDiscovery:
		return s.Discover, nil
	default:
		return nil, fmt.Errorf("scan: unknown mode %q", s.Mode)
	}
}

// Run executes spec §4.7's loop until a non-repeating scan completes
// or ctx is canceled. It returns an error only for an unknown Mode or
// for ctx cancellation. Producer errors, including a discovery
// subprocess that fails to start, are logged as warnings and do not
// end the loop or make Run return an error.
func (s Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		counts, err := s.runOnce(ctx)
		if err != nil {
			return err
		}
		s.logSummary(counts)

		if !s.Repeat {
			return nil
		}
		if s.ScanDelay > 0 {
			s.Log.Info("sleeping %s before next scan", s.ScanDelay)
			select {
			case <-time.After(s.ScanDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s Scheduler) runOnce(ctx context.Context) (scanerr.Counts, error) {
	producer, err := s.producerFor()
	if err != nil {
		return scanerr.Counts{}, err
	}

	pool := s.Pool
	if s.TotalHint != nil {
		presenter := progress.New(os.Stdout, s.TotalHint(ctx), progress.IsTerminal(int(os.Stdout.Fd())))
		pool.OnProgress = NewProgressPresenter(presenter)
	}

	ch := make(chan candidate.Candidate)
	errCh := make(chan error, 1)
	go func() { errCh <- producer.Run(ctx, ch) }()

	counts := pool.Run(ctx, ch)

	if err := <-errCh; err != nil {
		s.Log.Warn("candidate producer exited with error: %v", err)
	}
	return counts, nil
}

func (s Scheduler) logSummary(c scanerr.Counts) {
	s.Log.Info("scan complete: %d committed, %d opted out, %d errors", c.Committed, c.OptOut, c.Errors())
	if c.Errors() > 0 {
		s.Log.Warn(
			"error breakdown: address_parse=%d io=%d timed_out=%d malformed=%d parse=%d database=%d",
			c.AddressParse, c.IO, c.TimedOut, c.MalformedResponse, c.ParseResponse, c.Database,
		)
	}
}

// WarnOnWidePortRange logs a startup warning when the configured port
// span exceeds 10 (spec §4.7).
func WarnOnWidePortRange(log *logging.Logger, portStart, portEnd uint16) {
	if int(portEnd)-int(portStart) > 10 {
		log.Warn("port range %d-%d spans more than 10 ports; each rescanned host will take proportionally longer", portStart, portEnd)
	}
}

// ValidatePortRange enforces spec §4.7/§7's process-fatal invariant.
func ValidatePortRange(portStart, portEnd uint16) error {
	if portStart > portEnd {
		return fmt.Errorf("scan: port_range_start (%d) must be <= port_range_end (%d)", portStart, portEnd)
	}
	return nil
}

// NewProgressPresenter wires a worker.Progress callback onto a
// progress.Presenter sized for total tasks.
func NewProgressPresenter(p *progress.Presenter) worker.Progress {
	return func() { p.Increment() }
}
