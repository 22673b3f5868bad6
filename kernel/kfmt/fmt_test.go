package kfmt

import (
	"bytes"
	"testing"
)

func resetSink(t *testing.T) {
	t.Helper()
	origSink := sink
	origRing := earlyRing
	t.Cleanup(func() {
		sink = origSink
		earlyRing = origRing
	})
	sink = nil
	earlyRing = ringBuffer{}
}

func TestFprintfVerbs(t *testing.T) {
	cases := []struct {
		format string
		args   []interface{}
		want   string
	}{
		{"no verbs", nil, "no verbs"},
		{"%s", []interface{}{"text"}, "text"},
		{"%8s", []interface{}{"text"}, "    text"},
		{"%d apples", []interface{}{10}, "10 apples"},
		{"%4d", []interface{}{-42}, " -42"},
		{"0x%x", []interface{}{uint32(0xbadf00d)}, "0xbadf00d"},
		{"%8x", []interface{}{uint32(0xff)}, "000000ff"},
		{"%o", []interface{}{uint8(8)}, "10"},
		{"%t and %t", []interface{}{true, false}, "true and false"},
		{"%c", []interface{}{byte('!')}, "!"},
		{"100%%", nil, "100%"},
		{"%d", nil, "(MISSING)"},
		{"%d", []interface{}{"nope"}, "%!(WRONGTYPE)"},
		{"%q", []interface{}{"x"}, "%!(NOVERB)%!(EXTRA)"},
		{"done", []interface{}{1}, "done%!(EXTRA)"},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		Fprintf(&buf, tc.format, tc.args...)
		if got := buf.String(); got != tc.want {
			t.Errorf("Fprintf(%q, %v) = %q, want %q", tc.format, tc.args, got, tc.want)
		}
	}
}

func TestSetOutputSinkReplaysEarlyOutput(t *testing.T) {
	resetSink(t)

	Printf("early %d\n", 1)
	Printf("early %d\n", 2)

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if got, want := buf.String(), "early 1\nearly 2\n"; got != want {
		t.Fatalf("replayed output = %q, want %q", got, want)
	}

	Printf("live\n")
	if got, want := buf.String(), "early 1\nearly 2\nlive\n"; got != want {
		t.Fatalf("after live write = %q, want %q", got, want)
	}
}

func TestRingBufferDiscardsOldestWhenFull(t *testing.T) {
	resetSink(t)

	// Overfill by a margin; only the newest ringCapacity-1 bytes can
	// survive.
	chunk := bytes.Repeat([]byte{'a'}, ringCapacity)
	earlyRing.Write(chunk)
	earlyRing.Write([]byte("tail"))

	var buf bytes.Buffer
	SetOutputSink(&buf)

	out := buf.Bytes()
	if !bytes.HasSuffix(out, []byte("tail")) {
		t.Fatalf("expected newest bytes kept, got %q...", out[len(out)-8:])
	}
	if len(out) >= ringCapacity+len("tail") {
		t.Fatalf("expected oldest bytes discarded, got %d bytes", len(out))
	}
}

func TestPrefixWriterTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	w := &PrefixWriter{Sink: &buf, Prefix: []byte("pfx: ")}

	w.Write([]byte("one\ntwo\n"))
	w.Write([]byte("split "))
	w.Write([]byte("line\n"))

	want := "pfx: one\npfx: two\npfx: split line\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func resetLevels(t *testing.T) {
	t.Helper()
	origConsole, origSerial := consoleSink, serialSink
	origCT, origST := consoleThreshold, serialThreshold
	t.Cleanup(func() {
		consoleSink, serialSink = origConsole, origSerial
		consoleThreshold, serialThreshold = origCT, origST
	})
}

func TestLogfHonorsPerSinkThresholds(t *testing.T) {
	resetLevels(t)

	var console, serial bytes.Buffer
	SetLevelSinks(&console, &serial)
	SetLevelThresholds(LevelDebug, LevelError)

	Logf(LevelDebug, "pmm", "noisy %d\n", 1)
	Logf(LevelError, "pmm", "broken %d\n", 2)

	if got, want := console.String(), "klog: [pmm] noisy 1\nklog: [pmm] broken 2\n"; got != want {
		t.Fatalf("console = %q, want %q", got, want)
	}
	if got, want := serial.String(), "klog: [pmm] broken 2\n"; got != want {
		t.Fatalf("serial = %q, want %q", got, want)
	}
}

func TestLogfWithNilSinksDropsOutput(t *testing.T) {
	resetLevels(t)
	SetLevelSinks(nil, nil)
	Logf(LevelEmergency, "pmm", "nobody listening\n")
}
