package kfmt

import "io"

// Level is a klog-style verbosity level, consumed by the
// klog_console_level and klog_serial_level boot command-line tokens.
// It is deliberately a thin addition over Printf rather than a full
// subsystem log buffer; a ring-buffered, multi-sink klog is treated as
// an out-of-core collaborator.
type Level uint8

// Level values, ordered from most to least severe. Lower numeric value
// means "always show"; a threshold of LevelInfo shows Emergency through
// Info but hides Debug.
const (
	LevelEmergency Level = iota
	LevelAlert
	LevelCritical
	LevelError
	LevelWarning
	LevelNotice
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"emerg", "alert", "crit", "err", "warn", "notice", "info", "debug"}

func (l Level) String() string {
	if int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// consoleThreshold/serialThreshold gate Logf output independently,
// mirroring the klog_console_level/klog_serial_level boot tokens.
// consoleSink/serialSink are set by SetLevelSinks once the console and
// serial drivers are available; before that, Logf output is dropped
// rather than buffered, since klog lines are advisory.
var (
	consoleThreshold = LevelInfo
	serialThreshold  = LevelWarning
	consoleSink      io.Writer
	serialSink       io.Writer
)

// SetLevelThresholds configures the minimum severity that Logf will
// forward to the console and serial sinks respectively, as decoded from
// the klog_console_level/klog_serial_level boot tokens.
func SetLevelThresholds(console, serial Level) {
	consoleThreshold = console
	serialThreshold = serial
}

// SetLevelSinks installs the writers Logf forwards to. Either may be
// nil to disable that sink. Each sink is wrapped in a PrefixWriter so
// leveled lines stand apart from raw Printf traffic sharing the same
// console.
func SetLevelSinks(console, serial io.Writer) {
	consoleSink = wrapKlogSink(console)
	serialSink = wrapKlogSink(serial)
}

func wrapKlogSink(w io.Writer) io.Writer {
	if w == nil {
		return nil
	}
	return &PrefixWriter{Sink: w, Prefix: []byte("klog: ")}
}

// Logf writes a "[module] message" line tagged at the given level to
// whichever of the console/serial sinks have a threshold at or above
// level.
func Logf(level Level, module, format string, args ...interface{}) {
	if consoleSink != nil && level <= consoleThreshold {
		Fprintf(consoleSink, "["+module+"] "+format, args...)
	}
	if serialSink != nil && level <= serialThreshold {
		Fprintf(serialSink, "["+module+"] "+format, args...)
	}
}
