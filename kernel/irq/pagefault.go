package irq

import (
	"aasvogel/kernel"
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/errors"
)

// vectorPageFault is the processor exception number the CPU raises
// on a page-translation fault (Intel SDM vol. 3, #PF).
const vectorPageFault = 14

// readCR2 indirects through cpu.ReadCR2 so the handler can be
// exercised from a host test against a fake faulting address.
var readCR2 = cpu.ReadCR2

// panicPageFault indirects through kernel.PanicPageFault so tests can
// observe the handler without triggering the real crash/halt path.
var panicPageFault = kernel.PanicPageFault

// panicFn is the uninstalled-vector escalation path: after the dumps,
// the default handler hands off to the crash reporter for the stack
// trace and halt. Mockable for the same reason as panicPageFault.
var panicFn = kernel.Panic

var errUnhandledVector = &kernel.Error{Module: "irq", Kind: errors.NotSupported, Message: "unhandled interrupt vector"}

func init() {
	HandleException(vectorPageFault, pageFaultHandler)
}

// pageFaultHandler reads the faulting address off CR2 (the CPU
// doesn't push it onto the exception frame the way it does ErrCode)
// and hands it, together with the frame's error code, to the crash
// reporter.
func pageFaultHandler(f *Frame, r *Registers) {
	panicPageFault(readCR2(), f.ErrCode)
}
