// Package endpoint defines the (IPv4, port) candidate value type shared
// by the candidate producers, worker pool, and store adapter.
package endpoint

import (
	"fmt"
	"net/netip"
)

// Endpoint is an IPv4 address paired with a TCP port. It is value-typed
// and hashable so it can key a map or be sent over a channel cheaply.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// New validates addr and port and returns the corresponding Endpoint.
// Port 0 is never a valid scan target.
func New(addr netip.Addr, port uint16) (Endpoint, error) {
	if !addr.Is4() {
		return Endpoint{}, fmt.Errorf("endpoint: address %s is not IPv4", addr)
	}
	if port == 0 {
		return Endpoint{}, fmt.Errorf("endpoint: port 0 is never scanned")
	}
	return Endpoint{Addr: addr, Port: port}, nil
}

// Parse builds an Endpoint from a dotted-quad string and a port.
func Parse(addr string, port uint16) (Endpoint, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("endpoint: %w", err)
	}
	return New(a, port)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Addr, e.Port)
}
