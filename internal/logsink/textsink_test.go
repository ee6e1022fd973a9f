package logsink

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextSinkWritesOneLinePerTuple(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTextSink(&buf)

	sink.Write("tank[A]", "+cmd(1)", 10, 5)
	sink.Write("tank[B]", "die", 15, 0)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "tank[A]") || !strings.Contains(lines[0], "+cmd(1)") {
		t.Errorf("line 0 = %q, missing expected fields", lines[0])
	}
	if !strings.Contains(lines[1], "tank[B]") || !strings.Contains(lines[1], "die") {
		t.Errorf("line 1 = %q, missing expected fields", lines[1])
	}
}
