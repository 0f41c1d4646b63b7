// Package worker runs a bounded-concurrency pool of scan tasks: acquire
// a permit, fetch a server's status, release the permit, then persist
// the result outside the permit's critical section (spec §5 — DB work
// never blocks the next network dial).
package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sooox/serverseeker/internal/candidate"
	"github.com/sooox/serverseeker/internal/endpoint"
	"github.com/sooox/serverseeker/internal/scanerr"
	"github.com/sooox/serverseeker/internal/status"
)

// DefaultTaskTimeout bounds the whole per-candidate exchange — dial,
// handshake, status read, and persistence — not just the network
// portion (SPEC_FULL.md §C.2: a rescan stuck mid-transaction should
// still time out like a rescan stuck mid-dial).
const DefaultTaskTimeout = 3 * time.Second

// Fetcher retrieves a server's raw status JSON. internal/mcproto.Fetch
// satisfies this.
type Fetcher func(ctx context.Context, host string, port int) (string, error)

// Persister records a parsed result. internal/store.Store.Upsert
// satisfies this once its return type is adapted by the caller.
type Persister func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (OutcomeIsOptOut bool, err error)

// Progress is notified once per completed task, success or failure, so
// a presenter can render a running counter (internal/progress).
type Progress func()

// Pool bounds how many candidates are being actively probed at once.
// Limit should be well above the database pool's max connections since
// DB time is a small fraction of each task's wall clock.
type Pool struct {
	Limit     int64
	Timeout   time.Duration
	Fetch     Fetcher
	Persist   Persister
	OnProgress Progress
	Now       func() int64
}

// Run drains candidates from in, spawning one goroutine per task
// bounded by Limit concurrent permits, and blocks until in is closed
// (or ctx is canceled, after which no further candidate is taken) and
// every in-flight task has finished. It returns the aggregated
// error counts for the whole run (spec §4.5/§7's end-of-scan summary).
func (p Pool) Run(ctx context.Context, in <-chan candidate.Candidate) scanerr.Counts {
	sem := semaphore.NewWeighted(p.Limit)
	// outcomes carries nil for a successfully committed task, or the
	// classified error kind otherwise (scanerr.KindOptOut included).
	outcomes := make(chan *scanerr.Kind)
	done := make(chan struct{})

	var total scanerr.Counts
	go func() {
		for k := range outcomes {
			if k == nil {
				total.Committed++
				continue
			}
			total.Add(*k)
		}
		close(done)
	}()

	var wg sync.WaitGroup
	for c := range in {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(c candidate.Candidate) {
			defer wg.Done()
			p.runOne(ctx, c, sem, outcomes)
		}(c)
	}

	// wg.Wait, unlike sem.Acquire(ctx, p.Limit), cannot return early on
	// ctx cancellation: it only unblocks once every spawned goroutine
	// has actually finished, so close(outcomes) never races an in-flight
	// send on that channel.
	wg.Wait()
	close(outcomes)
	<-done
	return total
}

func kindPtr(k scanerr.Kind) *scanerr.Kind { return &k }

// runOne owns the permit it was handed: it releases sem right after the
// socket exchange completes, win or lose, so JSON parsing and the DB
// write never hold a permit open behind them.
func (p Pool) runOne(ctx context.Context, c candidate.Candidate, sem *semaphore.Weighted, outcomes chan<- *scanerr.Kind) {
	taskCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	ep, err := c.Endpoint()
	if err != nil {
		sem.Release(1)
		outcomes <- kindPtr(scanerr.KindAddressParse)
		p.notify()
		return
	}

	raw, err := p.Fetch(taskCtx, ep.Addr.String(), int(ep.Port))
	sem.Release(1)
	if err != nil {
		if kind, ok := scanerr.As(err); ok {
			outcomes <- kindPtr(kind)
		} else {
			outcomes <- kindPtr(scanerr.KindIO)
		}
		p.notify()
		return
	}

	resp, err := status.Parse([]byte(raw))
	if err != nil {
		outcomes <- kindPtr(scanerr.KindParseResponse)
		p.notify()
		return
	}

	optedOut, err := p.Persist(taskCtx, ep, resp, p.now())
	if err != nil {
		outcomes <- kindPtr(scanerr.KindDatabase)
		p.notify()
		return
	}
	if optedOut {
		outcomes <- kindPtr(scanerr.KindOptOut)
		p.notify()
		return
	}

	outcomes <- nil
	p.notify()
}

func (p Pool) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTaskTimeout
}

func (p Pool) now() int64 {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().Unix()
}

func (p Pool) notify() {
	if p.OnProgress != nil {
		p.OnProgress()
	}
}
