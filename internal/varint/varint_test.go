package varint

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	boundaries := []int32{0, 127, 128, 16_383, 16_384, 1<<31 - 1}
	for _, n := range boundaries {
		buf := Encode(nil, n)
		got, consumed, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode(%d): unexpected error: %v", n, err)
		}
		if got != n {
			t.Fatalf("decode(%d): got %d", n, got)
		}
		if consumed != len(buf) {
			t.Fatalf("decode(%d): consumed %d, want %d", n, consumed, len(buf))
		}
		if consumed != Size(n) {
			t.Fatalf("size(%d) = %d, encode produced %d bytes", n, Size(n), consumed)
		}
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10_000; i++ {
		n := int32(rng.Int63n(1 << 31))
		buf := Encode(nil, n)
		got, consumed, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode(%d): unexpected error: %v", n, err)
		}
		if got != n || consumed != len(buf) {
			t.Fatalf("round trip failed for %d: got (%d, %d)", n, got, consumed)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	// Five bytes, every one with the continuation bit set: never terminates.
	overlong := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, _, err := Decode(overlong); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed for overlong varint, got %v", err)
	}

	if _, _, err := Decode(nil); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed for empty input, got %v", err)
	}
}

func TestDecodeReaderMatchesDecode(t *testing.T) {
	for _, n := range []int32{0, 300, 2_097_151, 1<<31 - 1} {
		buf := Encode(nil, n)
		got, err := DecodeReader(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("DecodeReader(%d): unexpected error: %v", n, err)
		}
		if got != n {
			t.Fatalf("DecodeReader(%d): got %d", n, got)
		}
	}

	if _, err := DecodeReader(bytes.NewReader(nil)); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed on empty reader, got %v", err)
	}
}
