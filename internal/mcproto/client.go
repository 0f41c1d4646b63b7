// Package mcproto implements the Minecraft Java-edition status-ping
// exchange: a two-packet handshake/status request, and a bounded read of
// the JSON description that comes back.
package mcproto

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sooox/serverseeker/internal/scanerr"
	"github.com/sooox/serverseeker/internal/varint"
)

// DefaultTimeout is the wall-clock budget for the whole exchange
// (connect through the final JSON byte — see SPEC_FULL.md §C.2).
const DefaultTimeout = 3 * time.Second

// maxJSONLength is the ceiling the wire format allows for the status
// JSON string length (spec §4.2: "JSON length ∈ (0, 32_767]").
const maxJSONLength = 32_767

// initialReadSize is the size of the first read into the connection;
// it is large enough to hold the packet-length/packet-id/json-length
// header plus a first slice of most real servers' JSON bodies.
const initialReadSize = 1024

// Fetch dials host:port, performs the handshake and status request, and
// returns the raw JSON description string. The returned error, if any,
// is always a *scanerr.Error so callers can classify it without further
// type switching.
func Fetch(ctx context.Context, host string, port int) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return "", classifyDialErr(ctx, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := writeHandshakeAndStatusRequest(conn); err != nil {
		return "", classifyIOErr(ctx, err)
	}

	payload, err := readStatusJSON(conn)
	if err != nil {
		if se, ok := err.(*scanerr.Error); ok && se.Kind == scanerr.KindIO {
			if ne, ok := se.Cause.(net.Error); (ok && ne.Timeout()) || ctx.Err() != nil {
				return "", scanerr.New(scanerr.KindTimedOut, se.Cause)
			}
		}
		return "", err
	}
	return payload, nil
}

// writeHandshakeAndStatusRequest writes the fixed 9-byte payload: a
// handshake packet (id 0, protocol_version 0, empty address, port 0,
// next_state 1) immediately followed by an empty status-request packet
// (id 0). This is the literal `06 00 00 00 00 00 01 01 00` from spec §4.2.
func writeHandshakeAndStatusRequest(w io.Writer) error {
	handshake := &bytes.Buffer{}
	writePacketID(handshake, 0x00)
	writeVarInt(handshake, 0) // protocol_version: unvalidated by most servers
	writeString(handshake, "")
	writeUint16(handshake, 0)
	writeVarInt(handshake, 1) // next_state: 1 == status
	if err := writePacket(w, handshake.Bytes()); err != nil {
		return err
	}

	statusRequest := &bytes.Buffer{}
	writePacketID(statusRequest, 0x00)
	return writePacket(w, statusRequest.Bytes())
}

// readStatusJSON implements the bounded-read algorithm from spec §4.2:
// one initial read, decode packet length / packet id / json length from
// what's already buffered, then grow an output slice based on what was
// actually received — never on the varint-declared size.
func readStatusJSON(r io.Reader) (string, error) {
	buf := make([]byte, initialReadSize)
	n, err := r.Read(buf)
	if err != nil {
		return "", scanerr.New(scanerr.KindIO, err)
	}
	if n == 0 {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("empty read"))
	}
	buf = buf[:n]

	_, packetLenBytes, err := varint.Decode(buf)
	if err != nil {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("packet length: %w", err))
	}
	index := packetLenBytes

	// Packet ID: a valid status response always uses id 0, encoded in a
	// single byte, so we can consume it as a fast path without a full
	// varint decode.
	if index >= len(buf) {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("truncated before packet id"))
	}
	if buf[index] != 0x00 {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("unexpected packet id: %d", buf[index]))
	}
	index++

	if index > len(buf) {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("truncated before json length"))
	}
	jsonLen, jsonLenBytes, err := varint.Decode(buf[index:])
	if err != nil {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("json length: %w", err))
	}
	index += jsonLenBytes

	if jsonLen <= 0 || jsonLen > maxJSONLength {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("invalid json length: %d", jsonLen))
	}
	if index > len(buf) {
		return "", scanerr.New(scanerr.KindMalformedResponse, fmt.Errorf("index %d exceeds buffered bytes %d", index, len(buf)))
	}

	// Copy what we already have, then read only the remainder — never
	// pre-allocate to jsonLen up front (spec §4.2/§9: a hostile server
	// can announce gigabytes it never sends).
	have := buf[index:]
	want := int(jsonLen)
	if len(have) > want {
		have = have[:want]
	}
	output := make([]byte, len(have))
	copy(output, have)

	remaining := int64(want - len(have))
	if remaining > 0 {
		rest, err := io.ReadAll(io.LimitReader(r, remaining))
		if err != nil {
			return "", scanerr.New(scanerr.KindIO, err)
		}
		if int64(len(rest)) < remaining {
			return "", scanerr.New(scanerr.KindIO, io.ErrUnexpectedEOF)
		}
		output = append(output, rest...)
	}

	return string(output), nil
}

func writePacket(w io.Writer, payload []byte) error {
	header := &bytes.Buffer{}
	writeVarInt(header, int32(len(payload)))
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writePacketID(w io.Writer, id int32) { writeVarInt(w, id) }

func writeVarInt(w io.Writer, v int32) {
	var tmp [varint.MaxBytes]byte
	buf := varint.Encode(tmp[:0], v)
	_, _ = w.Write(buf)
}

func writeString(w io.Writer, s string) {
	writeVarInt(w, int32(len(s)))
	_, _ = io.WriteString(w, s)
}

func writeUint16(w io.Writer, v uint16) {
	_, _ = w.Write([]byte{byte(v >> 8), byte(v)})
}

func classifyDialErr(ctx context.Context, err error) *scanerr.Error {
	if ctx.Err() != nil {
		return scanerr.New(scanerr.KindTimedOut, err)
	}
	return scanerr.New(scanerr.KindIO, err)
}

func classifyIOErr(ctx context.Context, err error) *scanerr.Error {
	if ctx.Err() != nil {
		return scanerr.New(scanerr.KindTimedOut, err)
	}
	return scanerr.New(scanerr.KindIO, err)
}
