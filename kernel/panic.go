package kernel

import (
	"io"

	"aasvogel/kernel/console"
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/errors"
	"aasvogel/kernel/kfmt"
	"aasvogel/kernel/ksym"
)

// haltFn is swapped out by tests so Panic can be exercised without
// actually stopping the CPU.
var haltFn = cpu.Halt

// readEBP is swapped out by tests; the real implementation reads the
// live frame-pointer chain, which a hosted test has no business
// walking.
var readEBP = cpu.ReadEBP

// serialOut carries the crash report to a COM port as well as the
// screen when SetCrashSerial has installed one. nil (the default)
// means the screen is the only crash sink.
var serialOut io.Writer

// SetCrashSerial directs future crashes to w in addition to the
// console, used when preinit_serial (or an equivalent boot-time
// decision) asks for a COM1 trace.
func SetCrashSerial(w io.Writer) {
	serialOut = w
}

var errUnknownCause = &Error{Module: "rt", Kind: errors.Invalid, Message: "unknown cause"}

// beginCrash puts the console in the white-on-red crash presentation,
// disables interrupts, and returns the writer the crash report should
// be printed to.
func beginCrash() io.Writer {
	cpu.DisableInterrupts()
	console.EnterCrashMode()
	if serialOut != nil {
		return io.MultiWriter(console.Out, serialOut)
	}
	return console.Out
}

// printStackTrace walks the current frame-pointer chain and prints
// one "name+0xoff" (or bare address, if unresolved) line per frame.
func printStackTrace(w io.Writer) {
	ebp := readEBP()
	frames := 0
	ksym.StackTrace(ebp, func(pc uint32) {
		frames++
		if name, off, ok := ksym.ResolveReturn(uintptr(pc)); ok {
			kfmt.Fprintf(w, "  %s+0x%x\n", name, off)
		} else {
			kfmt.Fprintf(w, "  0x%x\n", pc)
		}
	})
	if frames == 0 {
		kfmt.Fprintf(w, "  (no stack frames available)\n")
	}
}

// Panic prints the crash banner required by the core's external
// interface ("Sage Aasvogel has crashed!"), the triggering error (if
// any), a symbol-resolved stack trace, and halts the CPU. It never
// returns.
//
// Panic doubles as the redirection target for the language's built-in
// panic() (wired up via runtime.gopanic during kernel/goruntime.Init),
// so it also accepts plain strings and errors in addition to *Error.
func Panic(e interface{}) {
	var err *Error
	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		err = &Error{Module: "rt", Kind: errors.Invalid, Message: t}
	case error:
		err = &Error{Module: "rt", Kind: errors.Invalid, Message: t.Error()}
	case nil:
		err = nil
	default:
		err = errUnknownCause
	}

	w := beginCrash()
	kfmt.Fprintf(w, "Sage Aasvogel has crashed!\n")
	if err != nil {
		kfmt.Fprintf(w, "[%s] %s (kind: %s)\n", err.Module, err.Message, err.Kind)
	}
	kfmt.Fprintf(w, "\nStack trace:\n")
	printStackTrace(w)

	haltFn()
}

// PanicAt reports a crash with explicit source location, used by the
// assert-style fatal checks scattered across the scheduler and
// synchronisation primitives (e.g. wrong-order mutex release, double
// free). file/fn/line identify the call site, since no automatic
// caller metadata exists down here.
func PanicAt(msg, file, fn string, line int) {
	w := beginCrash()
	kfmt.Fprintf(w, "Sage Aasvogel has crashed!\n")
	kfmt.Fprintf(w, "%s\n  at %s:%d (%s)\n", msg, file, line, fn)
	kfmt.Fprintf(w, "\nStack trace:\n")
	printStackTrace(w)

	haltFn()
}

// faultVerb names the access kind a page-fault error code records,
// used for the non-present case where any of read/write/execute can
// be the trigger.
func faultVerb(errCode uint32) string {
	switch {
	case errCode&0x10 != 0:
		return "execute"
	case errCode&0x2 != 0:
		return "write"
	default:
		return "read"
	}
}

// printFaultAddr resolves addr to a symbol+offset when possible,
// falling back to the bare hex address.
func printFaultAddr(w io.Writer, addr uint32) {
	if name, off, ok := ksym.Resolve(uintptr(addr)); ok {
		kfmt.Fprintf(w, "%s+0x%x", name, off)
	} else {
		kfmt.Fprintf(w, "0x%x", addr)
	}
}

// PanicPageFault reports a page fault classified from the CPU-pushed
// error code and the CR2 faulting address, then halts. kernel/irq
// registers this as the vector-14 exception handler.
//
// errCode's bits match the hardware's #PF layout: bit 0 clear means
// the page wasn't present at all; bit 1 set means the access was a
// write; bit 3 set means a reserved page-table bit was found set; bit
// 4 set means the access was an instruction fetch.
func PanicPageFault(faultAddr, errCode uint32) {
	w := beginCrash()
	kfmt.Fprintf(w, "Sage Aasvogel has crashed!\n")

	switch {
	case errCode&0x8 != 0:
		kfmt.Fprintf(w, "Reserved bits set in page table entry for ")
		printFaultAddr(w, faultAddr)
		kfmt.Fprintf(w, "\n")
	case errCode&0x1 == 0:
		kfmt.Fprintf(w, "Attempt to %s non-present memory at ", faultVerb(errCode))
		printFaultAddr(w, faultAddr)
		kfmt.Fprintf(w, "\n")
	case errCode&0x10 != 0:
		kfmt.Fprintf(w, "Attempt to execute non-executable memory\n")
	case errCode&0x2 != 0:
		kfmt.Fprintf(w, "Attempt to write to read-only memory at ")
		printFaultAddr(w, faultAddr)
		kfmt.Fprintf(w, "\n")
	default:
		kfmt.Fprintf(w, "Attempt to read protected memory at ")
		printFaultAddr(w, faultAddr)
		kfmt.Fprintf(w, "\n")
	}

	kfmt.Fprintf(w, "\nStack trace:\n")
	printStackTrace(w)

	haltFn()
}
