// Package candidate produces the stream of (address, port) pairs a
// scan mode feeds to the worker pool: either every known server
// rescanned across its configured port range, or freshly discovered
// addresses read off an external port scanner's stdout (spec §4.1/§4.2).
package candidate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"net/netip"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/sooox/serverseeker/internal/endpoint"
)

// Candidate is one (address, port) pair to probe.
type Candidate struct {
	Addr netip.Addr
	Port uint16
}

// EndpointSource yields every currently tracked address, in the order
// the store wants them rescanned. internal/store.Store.StreamEndpoints
// satisfies this.
type EndpointSource func(ctx context.Context) iter.Seq2[netip.Addr, error]

// RescanProducer emits (address, port) for every port in
// [PortStart, PortEnd] for every address yielded by Endpoints
// (spec §4.1 — rescan mode). Send blocks on a full channel, which is
// the only backpressure mechanism: a slow worker pool simply slows the
// producer rather than needing an explicit queue depth.
type RescanProducer struct {
	Endpoints          EndpointSource
	PortStart, PortEnd uint16
}

// Run streams candidates onto out until Endpoints is exhausted or ctx
// is canceled. It closes out before returning.
func (p RescanProducer) Run(ctx context.Context, out chan<- Candidate) error {
	defer close(out)

	var streamErr error
	for addr, err := range p.Endpoints(ctx) {
		if err != nil {
			streamErr = err
			continue
		}
		for port := p.PortStart; ; port++ {
			select {
			case out <- Candidate{Addr: addr, Port: port}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if port == p.PortEnd {
				break
			}
		}
	}
	return streamErr
}

// discoveryLine matches a masscan-style banner/output line of the form
// "Discovered open port 25565/tcp on 1.2.3.4", capturing the port and
// the IPv4 address (spec §4.2's external scanner contract).
var discoveryLine = regexp.MustCompile(`(\d{1,5})/tcp\D+(\d{1,3}(?:\.\d{1,3}){3})`)

// DiscoveryProducer launches an external high-rate port scanner as a
// subprocess and parses its stdout line by line. Unparseable lines are
// skipped, not fatal — scanner banners and progress chatter are
// expected noise on the same stream (spec §4.2/§9).
type DiscoveryProducer struct {
	// Command and Args build the subprocess invocation, e.g.
	// ("sudo", []string{"masscan", "-c", configFile}).
	Command string
	Args    []string

	// NewCommand lets tests substitute a fake subprocess; when nil,
	// os/exec.CommandContext is used.
	NewCommand func(ctx context.Context, name string, args ...string) Runner
}

// Runner is the subset of *exec.Cmd this package depends on, so tests
// can supply a fake subprocess without touching os/exec.
type Runner interface {
	StdoutPipe() (io.ReadCloser, error)
	Start() error
	Wait() error
}

func (p DiscoveryProducer) newCommand(ctx context.Context) Runner {
	if p.NewCommand != nil {
		return p.NewCommand(ctx, p.Command, p.Args...)
	}
	return exec.CommandContext(ctx, p.Command, p.Args...)
}

// Run starts the subprocess and streams parsed candidates onto out
// until the subprocess exits or ctx is canceled. It closes out before
// returning.
func (p DiscoveryProducer) Run(ctx context.Context, out chan<- Candidate) error {
	defer close(out)

	cmd := p.newCommand(ctx)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("candidate: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("candidate: start scanner: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		c, ok := parseDiscoveryLine(scanner.Text())
		if !ok {
			continue
		}
		select {
		case out <- c:
		case <-ctx.Done():
			_ = cmd.Wait()
			return ctx.Err()
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("candidate: scanner exited: %w", err)
	}
	return nil
}

func parseDiscoveryLine(line string) (Candidate, bool) {
	m := discoveryLine.FindStringSubmatch(line)
	if m == nil {
		return Candidate{}, false
	}
	port, err := strconv.ParseUint(m[1], 10, 16)
	if err != nil {
		return Candidate{}, false
	}
	addr, err := netip.ParseAddr(m[2])
	if err != nil {
		return Candidate{}, false
	}
	return Candidate{Addr: addr, Port: uint16(port)}, true
}

// Endpoint converts a Candidate to the validated endpoint.Endpoint the
// worker pool operates on.
func (c Candidate) Endpoint() (endpoint.Endpoint, error) {
	return endpoint.New(c.Addr, c.Port)
}
