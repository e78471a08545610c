package sprout

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// captureDebug turns tracing on and redirects it to a buffer for the rest of
// the test.
func captureDebug(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevMode := debugOut, globalDebug
	debugOut = &buf
	SetDebugMode(true)
	t.Cleanup(func() {
		debugOut = prevOut
		SetDebugMode(prevMode)
	})
	return &buf
}

func TestDebugModeOffIsSilent(t *testing.T) {
	buf := captureDebug(t)
	SetDebugMode(false)

	s := NewSession(SessionConfig{})
	s.Import("cat.png")
	s.Submit(context.Background(), "大きくして")

	if buf.Len() != 0 {
		t.Errorf("debug output with tracing off:\n%s", buf.String())
	}
	if DebugMode() {
		t.Error("DebugMode() = true after SetDebugMode(false)")
	}
}

func TestDebugModeTracesPipeline(t *testing.T) {
	buf := captureDebug(t)

	frames := &ManualFrames{}
	s := NewSession(SessionConfig{Frames: frames})
	s.Import("cat.png")
	frames.Run(30, 1.0/60)
	s.ClearSelection()
	s.Submit(context.Background(), "猫を大きくして")
	s.Submit(context.Background(), "猫をくるくるさせて")
	s.Submit(context.Background(), "猫を削除して")
	s.Confirm()
	frames.Advance(1.0 / 60)

	out := buf.String()
	for _, want := range []string{
		"create obj-1",
		"classify",
		"resolve",
		"mutate obj-1: scale",
		"effect spin on obj-1 started",
		"tick loop started",
		"dispose obj-1",
		"tick loop idle",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q", want)
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "[sprout] ") {
			t.Errorf("line without prefix: %q", line)
		}
	}
}

func TestDebugModeTracesDroppedDelete(t *testing.T) {
	buf := captureDebug(t)

	s := NewSession(SessionConfig{})
	s.Import("dog.png")
	s.Submit(context.Background(), "犬を削除して")
	s.Submit(context.Background(), "犬を削除して")
	_ = s.Cancel()

	out := buf.String()
	if !strings.Contains(out, "pending delete of obj-1 dropped") {
		t.Error("dropped delete not traced")
	}
	if !strings.Contains(out, "delete of obj-1 cancelled") {
		t.Error("cancel not traced")
	}
}
