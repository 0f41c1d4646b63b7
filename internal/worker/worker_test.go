package worker

import (
	"context"
	"errors"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sooox/serverseeker/internal/candidate"
	"github.com/sooox/serverseeker/internal/endpoint"
	"github.com/sooox/serverseeker/internal/scanerr"
	"github.com/sooox/serverseeker/internal/status"
)

func makeCandidates(n int) []candidate.Candidate {
	out := make([]candidate.Candidate, n)
	for i := range out {
		out[i] = candidate.Candidate{Addr: netip.MustParseAddr("10.0.0.1"), Port: uint16(25565 + i)}
	}
	return out
}

func feed(cands []candidate.Candidate) <-chan candidate.Candidate {
	ch := make(chan candidate.Candidate, len(cands))
	for _, c := range cands {
		ch <- c
	}
	close(ch)
	return ch
}

func TestPoolProcessesEveryCandidateAndReportsProgress(t *testing.T) {
	const n = 50
	var progressed int64
	var concurrent int64
	var maxConcurrent int64

	pool := Pool{
		Limit:   5,
		Timeout: time.Second,
		Fetch: func(ctx context.Context, host string, port int) (string, error) {
			cur := atomic.AddInt64(&concurrent, 1)
			defer atomic.AddInt64(&concurrent, -1)
			for {
				old := atomic.LoadInt64(&maxConcurrent)
				if cur <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, cur) {
					break
				}
			}
			return `{"version":{"name":"1.20.4","protocol":765},"players":{"online":0,"max":0},"description":"Hi"}`, nil
		},
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			return false, nil
		},
		OnProgress: func() { atomic.AddInt64(&progressed, 1) },
	}

	counts := pool.Run(context.Background(), feed(makeCandidates(n)))

	if counts.Committed != n {
		t.Fatalf("expected %d committed, got %d", n, counts.Committed)
	}
	if progressed != n {
		t.Fatalf("expected %d progress notifications, got %d", n, progressed)
	}
	if maxConcurrent > pool.Limit {
		t.Fatalf("concurrency exceeded limit: max observed %d, limit %d", maxConcurrent, pool.Limit)
	}
}

func TestPoolClassifiesFetchErrors(t *testing.T) {
	pool := Pool{
		Limit:   2,
		Timeout: time.Second,
		Fetch: func(ctx context.Context, host string, port int) (string, error) {
			return "", scanerr.New(scanerr.KindTimedOut, errors.New("deadline exceeded"))
		},
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			t.Fatal("persist should not be called when fetch fails")
			return false, nil
		},
	}

	counts := pool.Run(context.Background(), feed(makeCandidates(3)))
	if counts.TimedOut != 3 {
		t.Fatalf("expected 3 timed-out, got %+v", counts)
	}
	if counts.Errors() != 3 {
		t.Fatalf("expected 3 total errors, got %d", counts.Errors())
	}
}

func TestPoolTracksOptOutSeparatelyFromErrors(t *testing.T) {
	pool := Pool{
		Limit:   2,
		Timeout: time.Second,
		Fetch: func(ctx context.Context, host string, port int) (string, error) {
			return `{"version":{"name":"1.20.4","protocol":765},"players":{"online":0,"max":0},"description":"§b§d§f§d§b"}`, nil
		},
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			return status.IsOptOut(resp.DescriptionFormatted), nil
		},
	}

	counts := pool.Run(context.Background(), feed(makeCandidates(4)))
	if counts.OptOut != 4 {
		t.Fatalf("expected 4 opt-outs, got %+v", counts)
	}
	if counts.Errors() != 0 {
		t.Fatalf("opt-out must not count as an error, got %+v", counts)
	}
}

func TestPoolCountsDatabaseFailures(t *testing.T) {
	pool := Pool{
		Limit:   1,
		Timeout: time.Second,
		Fetch: func(ctx context.Context, host string, port int) (string, error) {
			return `{"version":{"name":"1.20.4","protocol":765},"players":{"online":0,"max":0}}`, nil
		},
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			return false, errors.New("connection refused")
		},
	}
	counts := pool.Run(context.Background(), feed(makeCandidates(2)))
	if counts.Database != 2 {
		t.Fatalf("expected 2 database errors, got %+v", counts)
	}
}

func TestPoolRejectsUnroutableCandidateBeforeFetch(t *testing.T) {
	fetchCalled := false
	pool := Pool{
		Limit: 1,
		Fetch: func(ctx context.Context, host string, port int) (string, error) {
			fetchCalled = true
			return "", nil
		},
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			return false, nil
		},
	}
	badCandidate := candidate.Candidate{Addr: netip.MustParseAddr("10.0.0.1"), Port: 0}
	counts := pool.Run(context.Background(), feed([]candidate.Candidate{badCandidate}))
	if counts.AddressParse != 1 {
		t.Fatalf("expected 1 address-parse error, got %+v", counts)
	}
	if fetchCalled {
		t.Fatal("fetch must not be called for an invalid candidate")
	}
}
