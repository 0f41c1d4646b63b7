package progress

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPresenterTTYRendersCarriageReturnLine(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 3, true)
	p.Increment()
	p.Increment()
	p.Increment()

	out := buf.String()
	if !strings.Contains(out, "\r") {
		t.Fatalf("expected carriage-return progress rendering, got %q", out)
	}
	if !strings.Contains(out, "3/3") {
		t.Fatalf("expected final count in output, got %q", out)
	}
	if p.Count() != 3 {
		t.Fatalf("expected count 3, got %d", p.Count())
	}
}

func TestPresenterNonTTYAlwaysFlushesFinalLine(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 1, false)
	p.Increment()

	out := buf.String()
	if !strings.Contains(out, "scanned 1/1") {
		t.Fatalf("expected final non-TTY line, got %q", out)
	}
}

func TestIsTerminalFalseForPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if IsTerminal(int(r.Fd())) {
		t.Fatal("expected a pipe to not report as a terminal")
	}
}
