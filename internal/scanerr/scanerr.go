// Package scanerr classifies the errors produced while scanning a single
// endpoint into the taxonomy from spec §4.8, so the scheduler can report
// a breakdown by kind without inspecting error strings.
package scanerr

import (
	"errors"
	"fmt"
)

// Kind is one category of the single scan-path error taxonomy.
type Kind int

const (
	// KindAddressParse covers a malformed IP handed in by a producer.
	KindAddressParse Kind = iota
	// KindIO covers socket connect/read/write failures.
	KindIO
	// KindTimedOut covers a deadline elapsing mid-exchange.
	KindTimedOut
	// KindMalformedResponse covers framing or length violations.
	KindMalformedResponse
	// KindParseResponse covers a status JSON document that failed schema.
	KindParseResponse
	// KindDatabase covers a store failure.
	KindDatabase
	// KindOptOut is not an error: it is the informational classification
	// for a server whose MOTD carries the opt-out sentinel.
	KindOptOut
)

func (k Kind) String() string {
	switch k {
	case KindAddressParse:
		return "AddressParseError"
	case KindIO:
		return "IOError"
	case KindTimedOut:
		return "TimedOut"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindParseResponse:
		return "ParseResponse"
	case KindDatabase:
		return "DatabaseError"
	case KindOptOut:
		return "ServerOptOut"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its scan-path classification.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// As extracts the Kind of err if it is (or wraps) a *Error, returning
// ok=false otherwise.
func As(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// Counts aggregates per-kind totals across a single scan for the
// end-of-scan summary line (spec §7: "N committed, M errors").
type Counts struct {
	AddressParse      int
	IO                int
	TimedOut          int
	MalformedResponse int
	ParseResponse     int
	Database          int
	OptOut            int
	Committed         int
}

// Add increments the bucket for kind.
func (c *Counts) Add(kind Kind) {
	switch kind {
	case KindAddressParse:
		c.AddressParse++
	case KindIO:
		c.IO++
	case KindTimedOut:
		c.TimedOut++
	case KindMalformedResponse:
		c.MalformedResponse++
	case KindParseResponse:
		c.ParseResponse++
	case KindDatabase:
		c.Database++
	case KindOptOut:
		c.OptOut++
	}
}

// Errors is the sum of every bucket that represents an actual failure
// (OptOut and Committed are excluded — see spec §7: opt-out is not an
// error).
func (c Counts) Errors() int {
	return c.AddressParse + c.IO + c.TimedOut + c.MalformedResponse + c.ParseResponse + c.Database
}
