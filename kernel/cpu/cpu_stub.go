//go:build !386

package cpu

// Hosted fallbacks for the privileged-instruction wrappers, so the
// portable parts of the kernel (allocator bookkeeping, queue math,
// scheduler state machines) can run under the host test toolchain on
// any architecture. Interrupt state is modeled as a package variable;
// operations with no hosted analogue are inert or fail loudly.

// eflagsIF is the interrupt-enable bit of EFLAGS.
const eflagsIF = 1 << 9

var interruptsEnabled = true

// EnableInterrupts sets the modeled interrupt flag.
func EnableInterrupts() { interruptsEnabled = true }

// DisableInterrupts clears the modeled interrupt flag.
func DisableInterrupts() { interruptsEnabled = false }

// SaveFlags returns a flags word whose IF bit mirrors the modeled
// interrupt state.
func SaveFlags() uint32 {
	if interruptsEnabled {
		return eflagsIF
	}
	return 0
}

// RestoreFlags restores the modeled interrupt state from flags.
func RestoreFlags(flags uint32) { interruptsEnabled = flags&eflagsIF != 0 }

// Halt has no hosted equivalent; reaching it means a test forgot to
// mock a halt path.
func Halt() { panic("cpu: Halt on a hosted build") }

// Pause is a no-op on hosted builds.
func Pause() {}

// Port I/O reads as zero and writes nowhere; packages that drive real
// ports indirect through function variables and substitute fakes in
// their tests.
func Inb(port uint16) uint8       { return 0 }
func Outb(port uint16, val uint8) {}
func Inw(port uint16) uint16      { return 0 }
func Outw(port uint16, val uint16) {}

func ReadCR2() uint32              { return 0 }
func ReadCR3() uint32              { return 0 }
func WriteCR3(addr uint32)         {}
func ReadCR4() uint32              { return 0 }
func WriteCR4(val uint32)          {}
func InvalidatePage(addr uintptr)  {}
func ReadEBP() uint32              { return 0 }

func id(leaf, subleaf uint32) (uint32, uint32, uint32, uint32) {
	return 0, 0, 0, 0
}

func ReadMSR(msr uint32) uint64       { return 0 }
func WriteMSR(msr uint32, val uint64) {}
