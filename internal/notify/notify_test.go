package notify

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_Emit(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Emit("Processed service.py", false)
	c.Emit("Error in broken.py: parse failed", true)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		if !strings.Contains(line, "GUARDIAN") {
			t.Errorf("line %d missing GUARDIAN badge: %q", i, line)
		}
		if !strings.Contains(line, "│") {
			t.Errorf("line %d missing separator: %q", i, line)
		}
	}
	if !strings.Contains(lines[0], "Processed service.py") {
		t.Errorf("success line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Error in broken.py") {
		t.Errorf("error line = %q", lines[1])
	}
}

func TestMulti_FansOut(t *testing.T) {
	var a, b []string
	n := Multi(
		Func(func(msg string, isErr bool) { a = append(a, msg) }),
		Func(func(msg string, isErr bool) { b = append(b, msg) }),
	)

	n.Emit("hello", false)

	if len(a) != 1 || len(b) != 1 {
		t.Errorf("fan-out missed a sink: a=%v b=%v", a, b)
	}
}
