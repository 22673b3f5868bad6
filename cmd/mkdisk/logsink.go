package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
)

// stderrSink is the smallest possible logr.LogSink: plain lines to
// stderr, no level filtering. mkdisk is a small host tool; it doesn't
// need klog's ring buffer or zapr's structured encoders, just logr's
// facade so its call sites read the same as the rest of this
// repository's host-side tooling.
type stderrSink struct{}

var _ logr.LogSink = stderrSink{}

func (stderrSink) Init(logr.RuntimeInfo) {}

func (stderrSink) Enabled(int) bool { return true }

func (stderrSink) Info(level int, msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "mkdisk: %s%s\n", msg, formatKV(kv))
}

func (stderrSink) Error(err error, msg string, kv ...interface{}) {
	fmt.Fprintf(os.Stderr, "mkdisk: %s: %v%s\n", msg, err, formatKV(kv))
}

func (s stderrSink) WithValues(kv ...interface{}) logr.LogSink { return s }

func (s stderrSink) WithName(string) logr.LogSink { return s }

func formatKV(kv []interface{}) string {
	s := ""
	for i := 0; i+1 < len(kv); i += 2 {
		s += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return s
}
